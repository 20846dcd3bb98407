package config

import (
	"time"

	"github.com/spf13/pflag"
)

// MockConfigHook lets tests answer configuration reads with closures. Unset
// closures return zero values.
type MockConfigHook struct {
	GetStringMock          func(key string) string
	GetBoolMock            func(key string) bool
	GetDurationMock        func(key string) time.Duration
	GetStringMapStringMock func(key string) map[string]string
	SetMock                func(k string, v any)
	BindFlagMock           func(string, *pflag.Flag) error
	GetProfileMock         func() string
	GetPathMock            func() string
}

func (m *MockConfigHook) GetString(key string) string {
	if m.GetStringMock == nil {
		return ""
	}
	return m.GetStringMock(key)
}

func (m *MockConfigHook) GetBool(key string) bool {
	if m.GetBoolMock == nil {
		return false
	}
	return m.GetBoolMock(key)
}

func (m *MockConfigHook) GetDuration(key string) time.Duration {
	if m.GetDurationMock == nil {
		return 0
	}
	return m.GetDurationMock(key)
}

func (m *MockConfigHook) GetStringMapString(key string) map[string]string {
	if m.GetStringMapStringMock == nil {
		return map[string]string{}
	}
	return m.GetStringMapStringMock(key)
}

func (m *MockConfigHook) Set(k string, v any) {
	if m.SetMock != nil {
		m.SetMock(k, v)
	}
}

func (m *MockConfigHook) BindFlag(configPath string, f *pflag.Flag) error {
	if m.BindFlagMock == nil {
		return nil
	}
	return m.BindFlagMock(configPath, f)
}

func (m *MockConfigHook) GetProfile() string {
	if m.GetProfileMock == nil {
		return "default"
	}
	return m.GetProfileMock()
}

func (m *MockConfigHook) GetPath() string {
	if m.GetPathMock == nil {
		return ""
	}
	return m.GetPathMock()
}
