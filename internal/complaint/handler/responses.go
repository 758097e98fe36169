package handler

import (
	"time"

	"github.com/google/uuid"

	"complaintdesk/internal/complaint/models"
)

// complaintResponse is the external projection of a complaint. Field names
// and content are the external contract; nothing beyond field extraction
// happens here.
type complaintResponse struct {
	ID           uuid.UUID `json:"id"`
	ProductID    int64     `json:"productId"`
	Content      string    `json:"content"`
	CreationDate time.Time `json:"creationDate"`
	Complainant  string    `json:"complainant"`
	Country      string    `json:"country"`
	ClaimCounter int       `json:"claimCounter"`
}

// pageResponse is the external projection of one listing page. The metadata
// is whatever the store produced, passed through unmodified.
type pageResponse struct {
	Content       []complaintResponse `json:"content"`
	TotalElements int64               `json:"totalElements"`
	TotalPages    int                 `json:"totalPages"`
	Number        int                 `json:"number"`
	Size          int                 `json:"size"`
}

func toComplaintResponse(c *models.Complaint) complaintResponse {
	return complaintResponse{
		ID:           c.ID,
		ProductID:    c.ProductID,
		Content:      c.Content,
		CreationDate: c.CreationDate,
		Complainant:  c.Complainant,
		Country:      c.Country,
		ClaimCounter: c.ClaimCounter,
	}
}

func toPageResponse(p *models.Page) pageResponse {
	content := make([]complaintResponse, 0, len(p.Content))
	for _, c := range p.Content {
		content = append(content, toComplaintResponse(c))
	}
	return pageResponse{
		Content:       content,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Number:        p.Number,
		Size:          p.Size,
	}
}
