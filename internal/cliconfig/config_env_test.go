package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"BLUEFALL_MESSAGE":        "Hi {first_name}",
				"BLUEFALL_DELAY":          "4s",
				"BLUEFALL_LIMIT":          "3",
				"BLUEFALL_VERIFY":         "true",
				"BLUEFALL_VERIFY_TIMEOUT": "20s",
				"BLUEFALL_DB":             "/env/chat.db",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Template:      "Hi {first_name}",
				Delay:         4 * time.Second,
				Limit:         3,
				Verify:        true,
				VerifyTimeout: 20 * time.Second,
				LedgerPath:    "/env/chat.db",
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"BLUEFALL_MESSAGE": "from env",
				"BLUEFALL_DB":      "/env/chat.db",
			},
			changed: map[string]bool{"message": true},
			initial: Config{
				Template: "from flag",
			},
			expected: Config{
				Template:   "from flag",
				LedgerPath: "/env/chat.db",
			},
			wantErr: false,
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"BLUEFALL_DELAY": "not-a-duration",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"BLUEFALL_LIMIT": "not-a-number",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name: "bool accepts 1",
			envVars: map[string]string{
				"BLUEFALL_DRY_RUN": "1",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				DryRun: true,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}
