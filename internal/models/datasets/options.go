package models

import "strings"

func WithVisibility(visibility string) DatasetOption {
	return func(d *Dataset) {
		if v := strings.TrimSpace(visibility); v != "" {
			d.Visibility = v
		}
	}
}

func WithLicense(license string) DatasetOption {
	return func(d *Dataset) {
		if l := strings.TrimSpace(license); l != "" {
			d.License = l
		}
	}
}

// WithTopics expects already-normalized topics.
func WithTopics(topics []string) DatasetOption {
	return func(d *Dataset) {
		d.Topics = append(StringList{}, topics...)
	}
}

func WithFile(url string, sizeMB int) DatasetOption {
	return func(d *Dataset) {
		d.FileURL = &url
		if sizeMB < 0 {
			sizeMB = 0
		}
		d.Size = sizeMB
	}
}

// Collection
func WithCollectionDescription(description string) CollectionOption {
	return func(c *Collection) { c.Description = strings.TrimSpace(description) }
}

func WithPublic(public bool) CollectionOption {
	return func(c *Collection) { c.IsPublic = public }
}
