package bria

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedResponse means the engine answered 200 with a body
	// that matches none of the known result shapes.
	ErrUnrecognizedResponse = errors.New("unrecognized image engine response")

	// ErrServiceUnavailable covers network failures and 5xx answers from
	// the engine.
	ErrServiceUnavailable = errors.New("image engine unavailable")
)

// resultItem is one entry of the "result" array variant. Its "urls" field
// arrives either as an array of strings or as a single string.
type resultItem struct {
	URLs urlList `json:"urls"`
}

// urlList accepts both a JSON array of strings and a bare string.
type urlList []string

func (u *urlList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*u = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*u = []string{one}
		return nil
	}
	return fmt.Errorf("urls is neither array nor string: %s", data)
}

// engineResponse covers every result shape the engine is known to produce:
//
//	{"result": [{"urls": [...]}, ...]}
//	{"result_url": "..."}
//	{"result_urls": [...]}
//	{"url": "..."}
//
// Exactly one of the fields is set on a valid response.
type engineResponse struct {
	Result     []resultItem `json:"result"`
	ResultURL  string       `json:"result_url"`
	ResultURLs urlList      `json:"result_urls"`
	URL        string       `json:"url"`
}

// imageURLs resolves the response to the produced image URLs, preferring the
// variants in the order the engine documents them. A response matching no
// variant is ErrUnrecognizedResponse.
func (r *engineResponse) imageURLs() ([]string, error) {
	switch {
	case len(r.Result) > 0:
		urls := make([]string, 0, len(r.Result))
		for _, item := range r.Result {
			if len(item.URLs) > 0 {
				urls = append(urls, item.URLs[0])
			}
		}
		if len(urls) == 0 {
			return nil, ErrUnrecognizedResponse
		}
		return urls, nil
	case r.ResultURL != "":
		return []string{r.ResultURL}, nil
	case len(r.ResultURLs) > 0:
		return r.ResultURLs, nil
	case r.URL != "":
		return []string{r.URL}, nil
	default:
		return nil, ErrUnrecognizedResponse
	}
}
