package handler

// submitComplaintRequest is the JSON body for POST /api/complaints. The
// complainant's network address arrives out-of-band in the "ip" header.
type submitComplaintRequest struct {
	ProductID   int64  `json:"productId"`
	Content     string `json:"content"`
	Complainant string `json:"complainant"`
}

// updateComplaintRequest is the JSON body for PUT /api/complaints/{id}.
type updateComplaintRequest struct {
	Content string `json:"content"`
}
