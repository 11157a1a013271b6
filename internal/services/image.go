package services

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"
)

const maxImageBytes = 2 * 1024 * 1024

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
}

// ImageStore turns a submitted image payload into the value stored on the post
type ImageStore interface {
	Put(ctx context.Context, postID, image string) (string, error)
}

// decodedImage is a data URI image after validation
type decodedImage struct {
	ContentType string
	Ext         string
	Data        []byte
}

// parseImage accepts an http(s) URL or a base64 PNG/JPEG data URI.
// For URLs it returns a nil image.
func parseImage(image string) (*decodedImage, error) {
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		u, err := url.Parse(image)
		if err != nil || u.Host == "" {
			return nil, invalid("Image must be a PNG or JPEG data URI or an http(s) URL.")
		}
		return nil, nil
	}

	rest, ok := strings.CutPrefix(image, "data:")
	if !ok {
		return nil, invalid("Image must be a PNG or JPEG data URI or an http(s) URL.")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, invalid("Image must be a PNG or JPEG data URI or an http(s) URL.")
	}
	contentType, encoding, _ := strings.Cut(meta, ";")
	contentType = strings.ToLower(contentType)
	ext, known := imageExtensions[contentType]
	if !known || encoding != "base64" {
		return nil, invalid("Image must be a PNG or JPEG data URI or an http(s) URL.")
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageBytes+2 {
		return nil, invalid("Image must be 2 MB or smaller.")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, invalid("Image must be a PNG or JPEG data URI or an http(s) URL.")
	}
	if len(data) > maxImageBytes {
		return nil, invalid("Image must be 2 MB or smaller.")
	}
	if contentType == "image/jpg" {
		contentType = "image/jpeg"
	}
	return &decodedImage{ContentType: contentType, Ext: ext, Data: data}, nil
}

// InlineImageStore keeps data URIs on the post row itself
type InlineImageStore struct{}

// Put validates the image and returns it unchanged
func (InlineImageStore) Put(ctx context.Context, postID, image string) (string, error) {
	if _, err := parseImage(image); err != nil {
		return "", err
	}
	return image, nil
}
