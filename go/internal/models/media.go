package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MediaRef points at an uploaded picture in its different sizes
type MediaRef struct {
	ID           int64  `json:"id"`
	URLSmall     string `json:"url_small"`
	URLMedium    string `json:"url_medium"`
	URLLarge     string `json:"url_large"`
	URLThumbnail string `json:"url_thumbnail"`
}

// MediaFromURL builds a media reference that uses the same url for every size
func MediaFromURL(url string) *MediaRef {
	return &MediaRef{
		URLSmall:     url,
		URLMedium:    url,
		URLLarge:     url,
		URLThumbnail: url,
	}
}

// UnmarshalJSON accepts either a media object or a bare url string
func (m *MediaRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return fmt.Errorf("failed to decode media url: %w", err)
		}
		*m = *MediaFromURL(url)
		return nil
	}

	type plain MediaRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to decode media: %w", err)
	}
	*m = MediaRef(p)
	return nil
}
