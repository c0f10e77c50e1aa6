package types

// Job is an open position on the hiring platform.
type Job struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	City         string   `json:"city,omitempty"`
	Salary       string   `json:"salary,omitempty"`
}

// Assistant is a recruiter persona style.
type Assistant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Style string `json:"style,omitempty"`
}

// PlatformStatus is the hiring platform connection state reported by the web portal.
type PlatformStatus struct {
	LoggedIn bool   `json:"logged_in"`
	Account  string `json:"account,omitempty"`
	Unread   int    `json:"unread,omitempty"`
}

// ChatMessage is one line of a platform chat thread.
type ChatMessage struct {
	From string `json:"from"`
	Text string `json:"text"`
	Time string `json:"time,omitempty"`
}
