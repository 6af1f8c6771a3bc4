package models

// Category is static and code-defined; categories are not persisted.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

var Categories = []Category{
	{ID: "general", Name: "General", Description: "Anything and everything", Color: "#8b5cf6", Icon: "💬"},
	{ID: "questions", Name: "Questions", Description: "Ask the community for help", Color: "#3b82f6", Icon: "❓"},
	{ID: "ideas", Name: "Ideas", Description: "Pitch and refine ideas", Color: "#f59e0b", Icon: "💡"},
	{ID: "showcase", Name: "Showcase", Description: "Show off what you built", Color: "#10b981", Icon: "🎨"},
	{ID: "feedback", Name: "Feedback", Description: "Feedback on Loopin itself", Color: "#ef4444", Icon: "📣"},
	{ID: "random", Name: "Random", Description: "Off-topic chatter", Color: "#6b7280", Icon: "🎲"},
}

// CategoryByID returns the static category for id, or nil if unknown.
func CategoryByID(id string) *Category {
	for i := range Categories {
		if Categories[i].ID == id {
			return &Categories[i]
		}
	}
	return nil
}
