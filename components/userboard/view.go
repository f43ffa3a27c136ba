package userboard

import "fmt"

// ViewModel is everything a renderer needs for one frame of the dashboard.
type ViewModel struct {
	Users         []User       `json:"users"`
	Shown         int          `json:"shown"`
	Total         int          `json:"total"`
	Stats         StatsView    `json:"stats"`
	Loading       bool         `json:"loading"`
	DemoMode      bool         `json:"demo_mode"`
	Advisory      string       `json:"advisory,omitempty"`
	Controls      ViewControls `json:"controls"`
	AgeMin        string       `json:"age_min"`
	AgeMax        string       `json:"age_max"`
	Form          CreateForm   `json:"form"`
	Upload        UploadState  `json:"upload"`
	UploadMessage string       `json:"upload_message,omitempty"`
	Notice        Notice       `json:"notice"`
}

// BuildView runs the query pipeline over a state snapshot.
func BuildView(state State) ViewModel {
	users := ProcessUsers(state.Users, state.Controls)
	return ViewModel{
		Users:         users,
		Shown:         len(users),
		Total:         len(state.Users),
		Stats:         RankStats(state.Stats, state.Controls.StatsExpanded),
		Loading:       state.Loading,
		DemoMode:      state.DemoMode,
		Advisory:      state.Advisory,
		Controls:      state.Controls,
		AgeMin:        formatBound(state.Controls.AgeMin),
		AgeMax:        formatBound(state.Controls.AgeMax),
		Form:          state.Form,
		Upload:        state.Upload,
		UploadMessage: state.Upload.Message(),
		Notice:        state.Notice,
	}
}

// Message renders the upload status line. Idle has no message.
func (u UploadState) Message() string {
	switch u.Status {
	case UploadProcessing:
		return "processing"
	case UploadSucceeded:
		return fmt.Sprintf("success: %d records added", u.Added)
	case UploadSimulated:
		return "success: upload simulated in demo mode"
	case UploadFailed:
		return "failed: " + u.Reason
	default:
		return ""
	}
}

// SortIndicator returns the arrow shown next to a column header.
func (v ViewModel) SortIndicator(key SortKey) string {
	if v.Controls.SortKey != key || key == SortNone {
		return ""
	}
	if v.Controls.SortDirection == SortDesc {
		return "▼"
	}
	return "▲"
}
