package internal

import "github.com/arroyoseco/abate/internal/inspection"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	tagger   inspection.Tagger
	narrator inspection.Narrator
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithTagger overrides the vision collaborator. Used in tests.
func WithTagger(t inspection.Tagger) Option {
	return func(a *application) {
		a.tagger = t
	}
}

// WithNarrator overrides the narrative collaborator. Used in tests.
func WithNarrator(n inspection.Narrator) Option {
	return func(a *application) {
		a.narrator = n
	}
}
