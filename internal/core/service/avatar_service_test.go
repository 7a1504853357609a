package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
	"github.com/incuna/user-management/internal/infrastructure/db/memory"
)

// Smallest data http.DetectContentType recognises as each type.
var (
	pngData  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	gifData  = []byte("GIF89a\x01\x00\x01\x00")
	jpegData = []byte("\xff\xd8\xff\xe0\x00\x10JFIF")
)

func bytesReader(s string) io.Reader { return strings.NewReader(s) }

type avatarFixture struct {
	svc     *AvatarService
	repo    *failingRepo
	blobs   *memBlobs
	resizer *stubResizer
	user    *domain.User
}

func newAvatarFixture(t *testing.T, maxBytes int64) *avatarFixture {
	t.Helper()
	f := &avatarFixture{
		repo:    &failingRepo{UserRepository: memory.NewUserRepository()},
		blobs:   newMemBlobs(),
		resizer: &stubResizer{},
	}
	f.svc = NewAvatarService(f.repo, f.blobs, f.resizer, maxBytes, zerolog.Nop())
	f.user = f.repo.Put(&domain.User{Email: "pic@example.com", IsActive: true})
	return f
}

func TestAvatarService_UploadStoresAndReplaces(t *testing.T) {
	f := newAvatarFixture(t, 0)
	ctx := context.Background()

	url, err := f.svc.Upload(ctx, f.user, ports.AvatarUpload{Filename: "me.png", Content: bytes.NewReader(pngData)})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	first := f.user.Avatar
	if !strings.HasPrefix(first, "avatars/") || !strings.HasSuffix(first, ".png") {
		t.Fatalf("unexpected key %q", first)
	}
	if url != "https://cdn.example.com/"+first {
		t.Fatalf("unexpected url %q", url)
	}
	if f.blobs.types[first] != "image/png" {
		t.Fatalf("unexpected content type %q", f.blobs.types[first])
	}

	if _, err := f.svc.Upload(ctx, f.user, ports.AvatarUpload{Content: bytes.NewReader(jpegData)}); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if !strings.HasSuffix(f.user.Avatar, ".jpg") {
		t.Fatalf("expected jpg key, got %q", f.user.Avatar)
	}
	if ok, _ := f.blobs.Exists(ctx, first); ok {
		t.Fatal("previous avatar should be removed")
	}
	stored, _ := f.repo.FindByID(ctx, f.user.ID)
	if stored.Avatar != f.user.Avatar {
		t.Fatalf("store not updated: %q", stored.Avatar)
	}

	got, err := f.svc.AvatarURL(ctx, stored)
	if err != nil || got != "https://cdn.example.com/"+stored.Avatar {
		t.Fatalf("avatar url: %q, %v", got, err)
	}
}

func TestAvatarService_UploadRejects(t *testing.T) {
	f := newAvatarFixture(t, 16)

	tests := []struct {
		name    string
		content io.Reader
	}{
		{"missing", nil},
		{"empty", bytes.NewReader(nil)},
		{"not an image", strings.NewReader("hello, world")},
		{"too large", bytes.NewReader(append(append([]byte{}, pngData...), make([]byte, 32)...))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Upload(context.Background(), f.user, ports.AvatarUpload{Content: tt.content})
			if len(fieldErrors(t, err)["avatar"]) == 0 {
				t.Fatalf("expected avatar error, got %v", err)
			}
		})
	}
	if f.blobs.saves != 0 {
		t.Fatalf("nothing should be stored, got %d saves", f.blobs.saves)
	}
}

func TestAvatarService_UploadRejectsUnusableImages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"corrupt", fmt.Errorf("%w: unexpected EOF", domain.ErrInvalidImage), invalidImageMsg},
		{"oversized", domain.ErrImageTooLarge, "Image dimensions are too large."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAvatarFixture(t, 0)
			f.resizer.checkErr = tt.err

			_, err := f.svc.Upload(context.Background(), f.user, ports.AvatarUpload{Content: bytes.NewReader(pngData)})
			if got := fieldErrors(t, err)["avatar"]; len(got) != 1 || got[0] != tt.want {
				t.Fatalf("unexpected avatar errors %v", got)
			}
			if f.blobs.saves != 0 || f.user.Avatar != "" {
				t.Fatal("rejected image must not be stored")
			}
		})
	}
}

func TestAvatarService_ThumbnailOfUnusableStoredAvatar(t *testing.T) {
	f := newAvatarFixture(t, 0)
	ctx := context.Background()
	if _, err := f.svc.Upload(ctx, f.user, ports.AvatarUpload{Content: bytes.NewReader(pngData)}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	f.resizer.thumbErr = domain.ErrImageTooLarge
	_, err := f.svc.ThumbnailURL(ctx, f.user, 32, 32)
	if len(fieldErrors(t, err)["avatar"]) == 0 {
		t.Fatalf("expected avatar error, got %v", err)
	}

	boom := errors.New("disk full")
	f.resizer.thumbErr = boom
	if _, err := f.svc.ThumbnailURL(ctx, f.user, 32, 32); !errors.Is(err, boom) {
		t.Fatalf("other resize errors should pass through, got %v", err)
	}
}

func TestAvatarService_UploadCleansUpOnStoreError(t *testing.T) {
	f := newAvatarFixture(t, 0)
	f.repo.updateErr = errors.New("db down")

	if _, err := f.svc.Upload(context.Background(), f.user, ports.AvatarUpload{Content: bytes.NewReader(gifData)}); err == nil {
		t.Fatal("expected error")
	}
	if len(f.blobs.objects) != 0 {
		t.Fatalf("orphan blob left behind: %v", f.blobs.objects)
	}
	if f.user.Avatar != "" {
		t.Fatal("user must keep its old avatar on failure")
	}
}

func TestAvatarService_Thumbnail(t *testing.T) {
	f := newAvatarFixture(t, 0)
	ctx := context.Background()

	if url, err := f.svc.ThumbnailURL(ctx, f.user, 10, 10); err != nil || url != "" {
		t.Fatalf("no avatar: expected empty url, got %q, %v", url, err)
	}

	if _, err := f.svc.Upload(ctx, f.user, ports.AvatarUpload{Content: bytes.NewReader(pngData)}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	original, err := f.svc.ThumbnailURL(ctx, f.user, 0, 0)
	if err != nil || original != "https://cdn.example.com/"+f.user.Avatar {
		t.Fatalf("no size: expected original url, got %q, %v", original, err)
	}
	if f.resizer.calls != 0 {
		t.Fatal("no resize expected without dimensions")
	}

	url, err := f.svc.ThumbnailURL(ctx, f.user, 64, 0)
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	key := thumbnailKey(f.user.Avatar, 64, 0)
	if url != "https://cdn.example.com/"+key || f.resizer.w != 64 || f.resizer.h != 0 {
		t.Fatalf("unexpected thumbnail %q (resized to %dx%d)", url, f.resizer.w, f.resizer.h)
	}

	if _, err := f.svc.ThumbnailURL(ctx, f.user, 64, 0); err != nil {
		t.Fatalf("thumbnail again: %v", err)
	}
	if f.resizer.calls != 1 {
		t.Fatalf("generated thumbnail should be reused, resized %d times", f.resizer.calls)
	}
}

func TestAvatarService_ThumbnailBounds(t *testing.T) {
	f := newAvatarFixture(t, 0)

	_, err := f.svc.ThumbnailURL(context.Background(), f.user, -1, MaxThumbnailSide+1)
	fields := fieldErrors(t, err)
	if len(fields["width"]) == 0 || len(fields["height"]) == 0 {
		t.Fatalf("expected width and height errors, got %v", fields)
	}
}

func TestThumbnailKey(t *testing.T) {
	if got := thumbnailKey("avatars/abc.png", 10, 0); got != "thumbnails/abc_10x0.png" {
		t.Fatalf("unexpected key %q", got)
	}
}
