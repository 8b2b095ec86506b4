package pathutil

import (
	"testing"

	"github.com/google/uuid"
)

func TestExtractUUID(t *testing.T) {
	known := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name    string
		path    string
		prefix  string
		want    uuid.UUID
		wantErr bool
	}{
		{
			name:   "valid uuid",
			path:   "/intelligence/6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			prefix: "/intelligence/",
			want:   known,
		},
		{
			name:    "garbage suffix",
			path:    "/intelligence/not-a-uuid",
			prefix:  "/intelligence/",
			wantErr: true,
		},
		{
			name:    "empty suffix",
			path:    "/intelligence/",
			prefix:  "/intelligence/",
			wantErr: true,
		},
		{
			name:    "numeric id rejected",
			path:    "/intelligence/123",
			prefix:  "/intelligence/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractUUID(tt.path, tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractUUID(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ExtractUUID(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
