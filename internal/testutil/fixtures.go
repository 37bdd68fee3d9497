package testutil

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/dom/photo-gallery/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password: "testpassword123",
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(name string) *UserBuilder {
	b.username = name
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// UserResponse matches the API user payload
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// BuildAndAuthenticate registers the user via the API and returns the user
// and its session cookie
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, *http.Cookie) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"username": b.username,
		"password": b.password,
	})

	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var envelope struct {
		Data UserResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	cookie := SessionCookie(resp)
	if cookie == nil {
		t.Fatalf("register response did not set a session cookie")
	}

	userID, _ := uuid.Parse(envelope.Data.ID)
	return &domain.User{ID: userID, Username: envelope.Data.Username}, cookie
}

// SessionCookie returns the sessionId cookie set by resp, if any
func SessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "sessionId" {
			return c
		}
	}
	return nil
}

// ImageBuilder inserts image rows directly, bypassing blob storage
type ImageBuilder struct {
	owner     *domain.User
	caption   string
	createdAt time.Time
	width     int
	height    int
}

// NewImageBuilder creates a new ImageBuilder with default values
func NewImageBuilder() *ImageBuilder {
	return &ImageBuilder{
		caption:   "a test image",
		createdAt: time.Now(),
		width:     900,
		height:    600,
	}
}

// WithOwner sets the image owner
func (b *ImageBuilder) WithOwner(user *domain.User) *ImageBuilder {
	b.owner = user
	return b
}

// WithCaption sets the caption
func (b *ImageBuilder) WithCaption(caption string) *ImageBuilder {
	b.caption = caption
	return b
}

// WithCreatedAt sets the creation time, which drives gallery ordering
func (b *ImageBuilder) WithCreatedAt(at time.Time) *ImageBuilder {
	b.createdAt = at
	return b
}

// WithSize sets the stored dimensions
func (b *ImageBuilder) WithSize(width, height int) *ImageBuilder {
	b.width = width
	b.height = height
	return b
}

// Build creates the image in the database
func (b *ImageBuilder) Build(t *testing.T, db *gorm.DB) *domain.Image {
	t.Helper()

	if b.owner == nil {
		user, _ := NewUserBuilder().Build(t, db)
		b.owner = user
	}

	id := uuid.New()
	name := fmt.Sprintf("%d-%s.png", b.createdAt.UnixMilli(), id.String()[:8])
	img := &domain.Image{
		ID:            id,
		Caption:       b.caption,
		Name:          name,
		Path:          fmt.Sprintf("%s/originals/%s", b.owner.ID, name),
		ThumbnailPath: fmt.Sprintf("%s/thumbnails/%s", b.owner.ID, name),
		Width:         b.width,
		Height:        b.height,
		UserID:        b.owner.ID,
		CreatedAt:     b.createdAt,
	}

	if err := db.Create(img).Error; err != nil {
		t.Fatalf("failed to create image: %v", err)
	}

	return img
}

// PNG encodes a solid width x height image
func PNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// OrientedJPEG encodes a width x height JPEG carrying an EXIF orientation tag
func OrientedJPEG(t *testing.T, width, height int, orientation uint16) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 64, A: 255})
		}
	}

	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, img, nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}

	// Big-endian TIFF header followed by a single-entry IFD0
	var exif bytes.Buffer
	exif.WriteString("Exif\x00\x00")
	exif.Write([]byte{'M', 'M', 0x00, 0x2A, 0x00, 0x00, 0x00, 0x08})
	binary.Write(&exif, binary.BigEndian, uint16(1))
	binary.Write(&exif, binary.BigEndian, uint16(0x0112))
	binary.Write(&exif, binary.BigEndian, uint16(3))
	binary.Write(&exif, binary.BigEndian, uint32(1))
	binary.Write(&exif, binary.BigEndian, orientation)
	binary.Write(&exif, binary.BigEndian, uint16(0))
	binary.Write(&exif, binary.BigEndian, uint32(0))

	raw := encoded.Bytes()
	var out bytes.Buffer
	out.Write(raw[:2])
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(exif.Len()+2))
	out.Write(exif.Bytes())
	out.Write(raw[2:])
	return out.Bytes()
}

// UploadRequest builds a multipart upload with an optional image part and
// caption field
func UploadRequest(t *testing.T, url string, fileName, contentType string, data []byte, caption string, cookie *http.Cookie) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if data != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, fileName))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create form part: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
			t.Fatalf("failed to write form part: %v", err)
		}
	}
	if err := writer.WriteField("caption", caption); err != nil {
		t.Fatalf("failed to write caption: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, &body)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

// CreateAuthenticatedRequest creates an HTTP request carrying the session cookie
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, cookie *http.Cookie) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	return req
}
