package dto

// SendEmailRequest is the JSON body for POST /send-email.
type SendEmailRequest struct {
	To      string `json:"to" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	HTML    string `json:"html"`
}

// SendLineRequest is the JSON body for POST /send-line.
type SendLineRequest struct {
	Message string `json:"message"`
}
