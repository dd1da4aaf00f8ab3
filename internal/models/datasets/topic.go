package models

// Topic is a distinct tag with the number of datasets carrying it.
type Topic struct {
	Name       string `json:"name"`
	UsageCount int    `json:"usage_count"`
}

// TopicsInput replaces a dataset's topics.
type TopicsInput struct {
	Topics []string `json:"topics" label:"Topics" validate:"max=20,dive,max=50"`
}
