package digest

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
)

//go:embed templates/digest.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/digest.html"))

// ImageMode selects how property images are referenced in the page.
type ImageMode int

const (
	// ImagesRemote links the CDN URL.
	ImagesRemote ImageMode = iota
	// ImagesAttached references inline attachments by content id.
	ImagesAttached
	// ImagesEmbedded inlines image data as data URIs, for standalone files.
	ImagesEmbedded
)

type pageData struct {
	Title         string
	Area          string
	OriginLabel   string
	Filters       []filterRow
	Properties    []propertyView
	GeneratedDate string
	GeneratedTime string
}

type filterRow struct {
	Key   string
	Value string
}

type propertyView struct {
	Property
	ImageSrc template.URL
}

// Render renders the digest as an HTML page.
func Render(d *Digest, mode ImageMode) ([]byte, error) {
	data := pageData{
		Title:         d.Profile.Title,
		Area:          d.Profile.Area,
		OriginLabel:   d.Profile.OriginLabel,
		Properties:    make([]propertyView, 0, len(d.Properties)),
		GeneratedDate: d.GeneratedAt.Format("2006-01-02"),
		GeneratedTime: d.GeneratedAt.Format("15:04:05"),
	}
	if data.OriginLabel == "" {
		data.OriginLabel = d.Profile.Origin
	}

	if f := d.Profile.Filters; f != nil {
		for _, key := range f.Keys() {
			v, _ := f.Get(key)
			data.Filters = append(data.Filters, filterRow{Key: key, Value: fmt.Sprint(v)})
		}
	}

	for _, p := range d.Properties {
		data.Properties = append(data.Properties, propertyView{Property: p, ImageSrc: imageSrc(p, mode)})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering digest: %w", err)
	}
	return buf.Bytes(), nil
}

// imageSrc picks the image reference for a property. An empty result
// renders the placeholder.
func imageSrc(p Property, mode ImageMode) template.URL {
	switch {
	case mode == ImagesEmbedded && p.Image != nil:
		return template.URL("data:" + p.Image.ContentType + ";base64," + //nolint:gosec // image bytes are base64 encoded
			base64.StdEncoding.EncodeToString(p.Image.Data))
	case mode == ImagesAttached && p.Image != nil:
		return template.URL("cid:" + p.Image.CID) //nolint:gosec // content id is generated
	case p.ImageURL != "":
		return template.URL(p.ImageURL) //nolint:gosec // built from the configured CDN base
	default:
		return ""
	}
}
