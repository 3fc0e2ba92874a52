package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/scanlate/internal/config"
	"github.com/lehigh-university-libraries/scanlate/internal/models"
	"github.com/lehigh-university-libraries/scanlate/internal/translation"
	"github.com/spf13/cobra"
)

// backendFlags override the environment configuration of the translator.
type backendFlags struct {
	provider    string
	model       string
	apiURL      string
	temperature float64
}

func (f *backendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "Translation backend: remote, ollama, openai or gemini (default from SCANLATE_PROVIDER)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model used by the ollama, openai and gemini backends")
	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "Base URL of the remote translation service (default from SCANLATE_API_URL)")
	cmd.Flags().Float64Var(&f.temperature, "temperature", 0.1, "Sampling temperature for LLM backends")
}

func (f *backendFlags) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if f.provider != "" {
		cfg.Provider = f.provider
	}
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Temperature = f.temperature
	}
	if f.model != "" {
		switch cfg.Provider {
		case config.ProviderOllama:
			cfg.OllamaModel = f.model
		case config.ProviderOpenAI:
			cfg.OpenAIModel = f.model
		case config.ProviderGemini:
			cfg.GeminiModel = f.model
		default:
			slog.Warn("Ignoring --model for the remote provider", "model", f.model)
		}
	}
	return cfg, nil
}

// translator builds the configured translator. The returned function
// releases its cache connection.
func (f *backendFlags) translator(cmd *cobra.Command) (translation.Translator, func(), error) {
	cfg, err := f.config(cmd)
	if err != nil {
		return nil, nil, err
	}
	t, err := translation.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create translator: %w", err)
	}
	closeFn := func() {
		if c, ok := t.(io.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Warn("Unable to close translation cache", "err", err)
			}
		}
	}
	return t, closeFn, nil
}

// settingsFlags are the translation options of the CLI commands.
type settingsFlags struct {
	settings models.Settings
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	f.settings = models.DefaultSettings()
	cmd.Flags().StringVar(&f.settings.FromLanguage, "from", f.settings.FromLanguage, "Source language code")
	cmd.Flags().StringVar(&f.settings.ToLanguage, "to", f.settings.ToLanguage, "Target language code")
	cmd.Flags().StringVar(&f.settings.HorizontalReadingDirection, "horizontal", f.settings.HorizontalReadingDirection, "Horizontal reading direction: LR or RL")
	cmd.Flags().StringVar(&f.settings.VerticalReadingDirection, "vertical", f.settings.VerticalReadingDirection, "Vertical reading direction: TB or BT")
	cmd.Flags().BoolVar(&f.settings.KeepContext, "keep-context", f.settings.KeepContext, "Translate using the context of the whole selection")
	cmd.Flags().BoolVar(&f.settings.SeparateDialogs, "separate-dialogs", f.settings.SeparateDialogs, "Return each dialog as its own text")
}
