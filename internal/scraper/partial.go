package scraper

import (
	"encoding/xml"
	"fmt"
	"strings"

	"teepee-scraper/internal/teepee"
)

type partialUpdate struct {
	Id      string `xml:"id,attr"`
	Content string `xml:",chardata"`
}

type partialResponse struct {
	XMLName  xml.Name        `xml:"partial-response"`
	Updates  []partialUpdate `xml:"changes>update"`
	Redirect *struct {
		Url string `xml:"url,attr"`
	} `xml:"redirect"`
	Error *struct {
		Name    string `xml:"error-name"`
		Message string `xml:"error-message"`
	} `xml:"error"`
}

// decodePartial returns the markup the partial response renders for
// widgetId. When nothing is addressed to the widget every update except the
// ViewState is returned. Anything that is not a partial response, such as the
// login page served after the session expired, is an error.
func decodePartial(body, widgetId string) (string, error) {
	var res partialResponse
	err := xml.Unmarshal([]byte(body), &res)
	if err != nil {
		return "", fmt.Errorf("%w: not a partial response: %w", teepee.ErrNetwork, err)
	}
	if res.Error != nil {
		return "", fmt.Errorf("%w: partial response error %s: %s", teepee.ErrNetwork, res.Error.Name, res.Error.Message)
	}
	if res.Redirect != nil {
		return "", fmt.Errorf("%w: partial response redirects to %s", teepee.ErrNetwork, res.Redirect.Url)
	}

	for _, update := range res.Updates {
		if update.Id == widgetId {
			return update.Content, nil
		}
	}

	var out strings.Builder
	for _, update := range res.Updates {
		if strings.Contains(update.Id, teepee.ViewStateField) {
			continue
		}
		out.WriteString(update.Content)
	}
	return out.String(), nil
}
