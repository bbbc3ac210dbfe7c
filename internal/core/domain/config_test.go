package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/debrepo/internal/core/domain"
)

func TestConfig_TargetArchitectures(t *testing.T) {
	cfg := &domain.Config{Architectures: []string{"amd64", "arm64"}}

	tests := []struct {
		field string
		want  []string
	}{
		{field: "all", want: []string{"amd64", "arm64"}},
		{field: "amd64", want: []string{"amd64"}},
		{field: "arm64 i386", want: []string{"arm64"}},
		{field: "riscv64", want: nil},
		{field: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.TargetArchitectures(tt.field))
		})
	}
}

func TestConfig_Components(t *testing.T) {
	cfg := &domain.Config{Codename: "artipie", Components: []string{"main", "contrib"}}

	assert.Equal(t, "main", cfg.DefaultComponent())
	assert.True(t, cfg.HasComponent("contrib"))
	assert.False(t, cfg.HasComponent("non-free"))
	assert.Equal(t, domain.IndexKey{Codename: "artipie", Component: "contrib", Arch: "amd64"}, cfg.IndexKey("contrib", "amd64"))
	assert.Empty(t, (&domain.Config{}).DefaultComponent())
}

func TestSigningConfig_Enabled(t *testing.T) {
	assert.True(t, domain.SigningConfig{SecretKey: []byte("k"), Passphrase: "p"}.Enabled())
	assert.False(t, domain.SigningConfig{SecretKey: []byte("k")}.Enabled())
	assert.False(t, domain.SigningConfig{Passphrase: "p"}.Enabled())
}
