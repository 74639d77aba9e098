package prefs_test

import (
	"testing"

	"findmygig/scan-service/internal/prefs"
)

func TestCreateRequest_Validate(t *testing.T) {
	cases := []struct {
		name    string
		req     prefs.CreateRequest
		wantErr string
	}{
		{
			name: "valid",
			req: prefs.CreateRequest{
				Name:      "BizOps hunt",
				Roles:     []string{"BizOps"},
				Locations: []string{"Tel Aviv"},
			},
		},
		{
			name: "missing name",
			req: prefs.CreateRequest{
				Roles:     []string{"BizOps"},
				Locations: []string{"Tel Aviv"},
			},
			wantErr: "Name is required",
		},
		{
			name: "missing roles",
			req: prefs.CreateRequest{
				Name:      "BizOps hunt",
				Locations: []string{"Tel Aviv"},
			},
			wantErr: "At least one role is required",
		},
		{
			name: "missing locations",
			req: prefs.CreateRequest{
				Name:  "BizOps hunt",
				Roles: []string{"BizOps"},
			},
			wantErr: "At least one location is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Error() != tc.wantErr {
				t.Errorf("Validate() = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidateThreshold(t *testing.T) {
	for _, v := range []float64{0, 65, 100} {
		if err := prefs.ValidateThreshold(v); err != nil {
			t.Errorf("ValidateThreshold(%v) = %v, want nil", v, err)
		}
	}
	for _, v := range []float64{-0.1, 100.1, 500} {
		if err := prefs.ValidateThreshold(v); err == nil {
			t.Errorf("ValidateThreshold(%v) = nil, want error", v)
		}
	}
}
