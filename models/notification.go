package models

// Mail is an outbound email.
type Mail struct {
	To      []string `json:"to" binding:"required,min=1,dive,email"`
	Subject string   `json:"subject" binding:"required"`
	Body    string   `json:"body" binding:"required"`
	HTML    bool     `json:"html"`
}

// WhatsAppMessage is a text message to a chat or phone number.
type WhatsAppMessage struct {
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// WhatsAppDocument is a base64 file sent over WhatsApp.
type WhatsAppDocument struct {
	To       string `json:"to" binding:"required"`
	FileName string `json:"file_name" binding:"required"`
	FileData string `json:"file_data" binding:"required"`
	FileType string `json:"file_type" binding:"required,oneof=document image video"`
}

// WhatsAppMedia describes a downloadable attachment of a received message.
type WhatsAppMedia struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileLink string `json:"file_link"`
}
