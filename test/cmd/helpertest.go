package cmd

import (
	"context"
	"log/slog"

	"github.com/kong/tablemodel/internal/build"
	"github.com/kong/tablemodel/internal/cmd/common"
	"github.com/kong/tablemodel/internal/config"
	"github.com/kong/tablemodel/internal/iostreams"
	"github.com/spf13/cobra"
)

type MockHelper struct {
	GetCmdMock          func() *cobra.Command
	GetArgsMock         func() []string
	GetStreamsMock      func() *iostreams.IOStreams
	GetConfigMock       func() (config.Hook, error)
	GetOutputFormatMock func() (common.OutputFormat, error)
	GetLoggerMock       func() (*slog.Logger, error)
	GetBuildInfoMock    func() (*build.Info, error)
	GetContextMock      func() context.Context
}

func (m *MockHelper) GetCmd() *cobra.Command {
	if m.GetCmdMock == nil {
		return nil
	}
	return m.GetCmdMock()
}

func (m *MockHelper) GetArgs() []string {
	if m.GetArgsMock == nil {
		return nil
	}
	return m.GetArgsMock()
}

func (m *MockHelper) GetStreams() *iostreams.IOStreams {
	return m.GetStreamsMock()
}

func (m *MockHelper) GetConfig() (config.Hook, error) {
	return m.GetConfigMock()
}

func (m *MockHelper) GetOutputFormat() (common.OutputFormat, error) {
	return m.GetOutputFormatMock()
}

func (m *MockHelper) GetLogger() (*slog.Logger, error) {
	return m.GetLoggerMock()
}

func (m *MockHelper) GetBuildInfo() (*build.Info, error) {
	return m.GetBuildInfoMock()
}

func (m *MockHelper) GetContext() context.Context {
	if m.GetContextMock == nil {
		return context.Background()
	}
	return m.GetContextMock()
}
