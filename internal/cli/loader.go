package cli

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/enduro/internal/race"
)

//go:embed schema.cue
var configSchema string

// LoadError is a configuration loading failure with a stable code.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// fileConfig is the YAML wire shape of a team configuration file.
type fileConfig struct {
	Drivers []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"drivers"`
	Stints []struct {
		Driver         string   `yaml:"driver"`
		PlannedMinutes *float64 `yaml:"planned_minutes"`
	} `yaml:"stints"`

	FuelDurationMinutes float64 `yaml:"fuel_duration_minutes"`
	FuelWarningMinutes  float64 `yaml:"fuel_warning_minutes"`
	RaceDurationMinutes float64 `yaml:"race_duration_minutes"`

	PracticeMinutes float64 `yaml:"practice_minutes"`
	CheckupMinutes  float64 `yaml:"checkup_minutes"`
	OfficialStart   string  `yaml:"official_start"`
}

// LoadConfigFile reads, schema-validates and decodes a YAML team
// configuration. Driver names are Unicode-normalized (NFC) and drivers
// without an id are assigned one; stint entries may reference a driver by
// id or by name.
func LoadConfigFile(path string) (race.Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return race.Config{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
	}
	if err != nil {
		return race.Config{}, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading config file: %v", err)}
	}

	// Decode once into a generic document for schema validation.
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return race.Config{}, &LoadError{Code: ErrCodeBadConfig, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}
	if err := validateAgainstSchema(doc); err != nil {
		return race.Config{}, err
	}

	// Decode again into the typed wire shape.
	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return race.Config{}, &LoadError{Code: ErrCodeBadConfig, Message: fmt.Sprintf("decoding config: %v", err)}
	}

	return buildConfig(file)
}

// validateAgainstSchema unifies the document with the embedded CUE schema.
func validateAgainstSchema(doc map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(configSchema)
	if err := schema.Err(); err != nil {
		return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("compiling schema: %v", err)}
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return &LoadError{Code: ErrCodeGeneric, Message: "schema has no #Config definition"}
	}

	value := ctx.Encode(doc)
	if err := value.Err(); err != nil {
		return &LoadError{Code: ErrCodeBadConfig, Message: fmt.Sprintf("encoding config: %v", err)}
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		// Collect every violation with its field path, like the CUE
		// tooling does, rather than stopping at the first.
		var msgs []string
		for _, e := range cueerrors.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		return &LoadError{Code: ErrCodeBadConfig, Message: fmt.Sprintf("config schema violation: %v", msgs)}
	}
	return nil
}

// buildConfig converts the wire shape into a race.Config.
func buildConfig(file fileConfig) (race.Config, error) {
	cfg := race.Config{
		FuelDurationMinutes: file.FuelDurationMinutes,
		FuelWarningMinutes:  file.FuelWarningMinutes,
		RaceDurationMinutes: file.RaceDurationMinutes,
		PracticeMinutes:     file.PracticeMinutes,
		CheckupMinutes:      file.CheckupMinutes,
	}

	// byRef resolves a stint's driver reference: id first, then name.
	byRef := make(map[string]string, 2*len(file.Drivers))
	for _, d := range file.Drivers {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		name := norm.NFC.String(d.Name)
		cfg.Drivers = append(cfg.Drivers, race.Driver{ID: id, Name: name})
		byRef[id] = id
		if _, taken := byRef[name]; !taken {
			byRef[name] = id
		}
	}

	for i, st := range file.Stints {
		id, ok := byRef[norm.NFC.String(st.Driver)]
		if !ok {
			return race.Config{}, &LoadError{
				Code:    ErrCodeBadConfig,
				Message: fmt.Sprintf("stint %d references unknown driver %q", i+1, st.Driver),
			}
		}
		entry := race.StintEntry{DriverID: id}
		if st.PlannedMinutes != nil {
			v := *st.PlannedMinutes
			entry.PlannedMinutes = &v
		}
		cfg.StintSequence = append(cfg.StintSequence, entry)
	}

	if file.OfficialStart != "" {
		t, err := time.Parse(time.RFC3339, file.OfficialStart)
		if err != nil {
			return race.Config{}, &LoadError{
				Code:    ErrCodeBadConfig,
				Message: fmt.Sprintf("official_start %q is not RFC 3339: %v", file.OfficialStart, err),
			}
		}
		cfg.OfficialStart = &t
	}

	if err := cfg.Validate(); err != nil {
		return race.Config{}, &LoadError{Code: ErrCodeBadConfig, Message: err.Error()}
	}
	return cfg, nil
}
