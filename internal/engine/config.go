package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-portfolio/internal/market"
	"github.com/rxtech-lab/argo-portfolio/internal/portfolio/commission"
	"github.com/rxtech-lab/argo-portfolio/internal/risk"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

type Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting cash balance in USD,minimum=0" validate:"gt=0"`
	Broker         commission.Broker          `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations"`
	StepSeconds    int                        `yaml:"step_seconds" json:"step_seconds" jsonschema:"title=Step Seconds,description=Synthetic offset in seconds between backfilled entries sharing a date,minimum=1" validate:"gt=0"`
	Risk           risk.Config                `yaml:"risk" json:"risk" jsonschema:"title=Risk,description=Risk engine parameters"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the processed tick window"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the processed tick window"`
}

// UnmarshalYAML implements custom unmarshaling for Config.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plainConfig struct {
		InitialCapital float64           `yaml:"initial_capital"`
		Broker         commission.Broker `yaml:"broker"`
		StepSeconds    int               `yaml:"step_seconds"`
		Risk           *risk.Config      `yaml:"risk"`
		StartTime      *time.Time        `yaml:"start_time"`
		EndTime        *time.Time        `yaml:"end_time"`
	}

	var config plainConfig
	if err := unmarshal(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Broker = config.Broker
	c.StepSeconds = config.StepSeconds
	if c.StepSeconds == 0 {
		c.StepSeconds = market.DefaultStepSeconds
	}
	if config.Risk != nil {
		c.Risk = *config.Risk
	} else {
		c.Risk = risk.DefaultConfig()
	}
	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}
	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// Validate checks the config, including the nested risk parameters.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.StructExcept(c, "Risk"); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine config", err)
	}
	return c.Risk.Validate()
}

// GenerateSchema generates a JSON schema for the Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if strings.Contains(t.String(), "commission.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission.AllBrokers,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "portfolio-engine-config"
	schema.Description = "Configuration schema for the portfolio engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 100000,
		Broker:         commission.BrokerInteractiveBroker,
		StepSeconds:    market.DefaultStepSeconds,
		Risk:           risk.DefaultConfig(),
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
	}
}
