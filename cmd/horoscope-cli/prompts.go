package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/cislenka/go-horoscope/internal/engine"
)

// errAborted is returned when the user interrupts a prompt (Ctrl+C).
var errAborted = errors.New(config.ErrPromptAborted)

// InputConfig configures a text or password prompt.
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// Prompter abstracts the terminal so the commands can be tested without one.
type Prompter interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	if err := survey.AskOne(prompt, &out, validatorOpts(cfg)...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Password(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Password{
		Message: cfg.Message,
		Help:    cfg.Help,
	}
	if err := survey.AskOne(prompt, &out, validatorOpts(cfg)...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func validatorOpts(cfg InputConfig) []survey.AskOpt {
	if cfg.Validator == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		return cfg.Validator(s)
	})}
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}

// askMissing prompts for every field that does not pass validation yet.
// Each answer is checked with the same rules as the form before it is accepted.
func askMissing(ctx context.Context, p Prompter, in engine.FormInput, today time.Time) (engine.FormInput, error) {
	for _, f := range engine.Fields {
		if engine.ValidateField(f, in, today) == engine.ErrNone {
			continue
		}

		slog.Debug(config.MsgPromptField,
			config.LogKeyComponent, config.CompCLI,
			config.LogKeyKey, f.String())

		help := ""
		if f == engine.FieldDOB {
			help = config.FlagDescDOB
		}

		answer, err := p.Input(ctx, InputConfig{
			Message: engine.FieldLabel(nil, f),
			Default: fieldValue(in, f),
			Help:    help,
			Validator: func(s string) error {
				if e := engine.ValidateField(f, withField(in, f, s), today); e != engine.ErrNone {
					return errors.New(engine.FieldErrorText(nil, f, e))
				}
				return nil
			},
		})
		if err != nil {
			return in, err
		}
		in = withField(in, f, answer)
	}
	return in, nil
}

func fieldValue(in engine.FormInput, f engine.Field) string {
	switch f {
	case engine.FieldName:
		return in.Name
	case engine.FieldDOB:
		return in.DOB
	default:
		return in.Code
	}
}

func withField(in engine.FormInput, f engine.Field, v string) engine.FormInput {
	switch f {
	case engine.FieldName:
		in.Name = v
	case engine.FieldDOB:
		in.DOB = v
	default:
		in.Code = v
	}
	return in
}
