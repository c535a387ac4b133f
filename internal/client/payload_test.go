package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayloadValidateCountsCharactersNotBytes(t *testing.T) {
	// 多字节字符按字符数计，不按字节数
	f := validFields()
	f.Title = strings.Repeat("ж", 30)
	f.Location = strings.Repeat("ж", 60)
	f.Description = strings.Repeat("ж", 600)
	p := CreatePayload{AnnouncementFields: f, Image: ImageFile{Name: "a.png", Content: []byte("x")}}
	assert.Empty(t, p.Validate())

	f.Title = strings.Repeat("ж", 51)
	p.AnnouncementFields = f
	assert.Equal(t, "Max length: 50", p.Validate()["title"])
}

func TestPayloadValidateBounds(t *testing.T) {
	f := validFields()
	f.Title = "ab"
	f.PhoneNumber = "12345"
	p := UpdatePayload{AnnouncementFields: f}

	fields := p.Validate()
	assert.Equal(t, "Min length: 3", fields["title"])
	assert.Equal(t, "Min length: 10", fields["phoneNumber"])
}
