package entity

// Attribution records the provenance of an image.
type Attribution struct {
	SourceName  string `json:"sourceName,omitempty"`
	SourceURL   string `json:"sourceUrl,omitempty"`
	Author      string `json:"author,omitempty"`
	LicenceName string `json:"licenceName,omitempty"`
	LicenceURL  string `json:"licenceUrl,omitempty"`
}

// Image is an image reference with an optional provenance record. The
// Type tag is free-form ("cover", "screenshot", ...).
type Image struct {
	URL         string       `json:"url"`
	Type        string       `json:"type,omitempty"`
	Alt         string       `json:"alt,omitempty"`
	Attribution *Attribution `json:"attribution,omitempty"`
}

// ImageFromValue reads an Image out of an object value. A bare string
// value is accepted as a URL-only image.
func ImageFromValue(v Value) (Image, bool) {
	if s, ok := v.AsString(); ok {
		return Image{URL: s}, s != ""
	}
	if v.Kind() != KindObject {
		return Image{}, false
	}

	var img Image
	if f, ok := v.Field("url"); ok {
		img.URL, _ = f.AsString()
	}
	if img.URL == "" {
		return Image{}, false
	}
	if f, ok := v.Field("type"); ok {
		img.Type, _ = f.AsString()
	}
	if f, ok := v.Field("alt"); ok {
		img.Alt, _ = f.AsString()
	}
	if f, ok := v.Field("attribution"); ok && f.Kind() == KindObject {
		attr := &Attribution{}
		if s, ok := f.Field("sourceName"); ok {
			attr.SourceName, _ = s.AsString()
		}
		if s, ok := f.Field("sourceUrl"); ok {
			attr.SourceURL, _ = s.AsString()
		}
		if s, ok := f.Field("author"); ok {
			attr.Author, _ = s.AsString()
		}
		if s, ok := f.Field("licenceName"); ok {
			attr.LicenceName, _ = s.AsString()
		}
		if s, ok := f.Field("licenceUrl"); ok {
			attr.LicenceURL, _ = s.AsString()
		}
		img.Attribution = attr
	}
	return img, true
}

// ImagesFromValue reads a list of images from an array value. A single
// object or string value is treated as a one-element list. Elements that
// do not look like images are skipped.
func ImagesFromValue(v Value) []Image {
	items, ok := v.Items()
	if !ok {
		if img, ok := ImageFromValue(v); ok {
			return []Image{img}
		}
		return nil
	}
	images := make([]Image, 0, len(items))
	for _, item := range items {
		if img, ok := ImageFromValue(item); ok {
			images = append(images, img)
		}
	}
	return images
}
