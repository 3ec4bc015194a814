package model

// DTOs exchanged with the messaging source. Field names follow the wire
// format the bridge exposes.

// ReadyStatus describes the pairing state of the messaging client.
type ReadyStatus struct {
	QR    string `json:"qr"`
	Ready bool   `json:"ready"`
}

// Contact is a messaging-source contact.
type Contact struct {
	ID           string   `json:"id"`
	Number       string   `json:"number"`
	Name         string   `json:"name,omitempty"`
	PushName     string   `json:"pushname"`
	ShortName    string   `json:"shortName,omitempty"`
	VerifiedName string   `json:"verifiedName,omitempty"`
	IsBusiness   bool     `json:"isBusiness"`
	IsEnterprise bool     `json:"isEnterprise"`
	IsGroup      bool     `json:"isGroup"`
	IsMe         bool     `json:"isMe"`
	IsMyContact  bool     `json:"isMyContact"`
	IsUser       bool     `json:"isUser"`
	IsWAContact  bool     `json:"isWAContact"`
	IsBlocked    bool     `json:"isBlocked"`
	Labels       []string `json:"labels,omitempty"`
	Type         string   `json:"type"`
}

// Group is a group chat summary.
type Group struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Archived       bool   `json:"archived"`
	IsReadOnly     bool   `json:"isReadOnly"`
	IsMuted        bool   `json:"isMuted"`
	MuteExpiration int64  `json:"muteExpiration"`
	Timestamp      int64  `json:"timestamp"`
	UnreadCount    int    `json:"unreadCount"`
	Pinned         bool   `json:"pinned"`
}

// SendRequest is the body of POST /api/message.
type SendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}
