// Package config loads world definitions and runtime settings.
//
// A world file holds the motive vocabulary, the action catalog, the agents
// and the locations in one JSON or YAML document. A paths file instead names
// three separate files for actions, agents and locations. Every document is
// checked against an embedded JSON Schema before it is decoded, and every
// cross reference is resolved by Build before a Model is returned.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed world.schema.json
var worldSchema string

const schemaURL = "https://anthology.local/world.schema.json"

// Schema fragments for each document kind. noSchema skips validation.
const (
	noSchema        = "-"
	schemaWorld     = ""
	schemaActions   = "#/$defs/actions"
	schemaAgents    = "#/$defs/agents"
	schemaLocations = "#/$defs/locations"
	schemaPaths     = "#/$defs/paths"
)

// ConfigError names the key that made a world invalid.
type ConfigError struct {
	Key string // e.g. `agent "Norma" current_location`
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(key string, err error) error {
	return &ConfigError{Key: key, Err: err}
}

// ErrMissingPath is returned when a paths file omits a required entry.
var ErrMissingPath = errors.New("missing path")

// World is the on-disk world document.
type World struct {
	Motives   []string       `json:"motives,omitempty"`
	Actions   ActionsFile    `json:"actions"`
	Agents    []AgentSpec    `json:"agents"`
	Locations []LocationSpec `json:"locations"`
}

// ActionsFile groups actions by kind.
type ActionsFile struct {
	Primary  []PrimarySpec  `json:"primary,omitempty"`
	Schedule []ScheduleSpec `json:"schedule,omitempty"`
}

// PrimarySpec describes a primary action.
type PrimarySpec struct {
	Name         string             `json:"name"`
	MinTime      int                `json:"min_time,omitempty"`
	Hidden       bool               `json:"hidden,omitempty"`
	Effects      map[string]float64 `json:"effects,omitempty"`
	Requirements *RequirementsSpec  `json:"requirements,omitempty"`
}

// ScheduleSpec describes a schedule action.
type ScheduleSpec struct {
	Name             string            `json:"name"`
	MinTime          int               `json:"min_time,omitempty"`
	Hidden           bool              `json:"hidden,omitempty"`
	InstigatorAction string            `json:"instigator_action"`
	TargetAction     string            `json:"target_action,omitempty"`
	Interrupt        bool              `json:"interrupt,omitempty"`
	Requirements     *RequirementsSpec `json:"requirements,omitempty"`
}

// RequirementsSpec holds the optional requirement of each class.
type RequirementsSpec struct {
	Motive   []MotiveSpec   `json:"motive,omitempty"`
	Location *LocationReq   `json:"location,omitempty"`
	People   *PeopleReqSpec `json:"people,omitempty"`
}

// MotiveSpec is one motive condition; Op is parsed leniently.
type MotiveSpec struct {
	Motive    string  `json:"motive"`
	Op        string  `json:"op"`
	Threshold float64 `json:"threshold"`
}

// LocationReq lists tag constraints.
type LocationReq struct {
	HasAllOf       []string `json:"has_all_of,omitempty"`
	HasOneOrMoreOf []string `json:"has_one_or_more_of,omitempty"`
	HasNoneOf      []string `json:"has_none_of,omitempty"`
}

// PeopleReqSpec lists occupancy constraints.
type PeopleReqSpec struct {
	MinPeople             int      `json:"min_people,omitempty"`
	MaxPeople             int      `json:"max_people,omitempty"`
	SpecificPeoplePresent []string `json:"specific_people_present,omitempty"`
	SpecificPeopleAbsent  []string `json:"specific_people_absent,omitempty"`
	RelationshipsPresent  []string `json:"relationships_present,omitempty"`
}

// AgentSpec describes an agent's starting state.
type AgentSpec struct {
	Name            string             `json:"name"`
	Motives         map[string]float64 `json:"motives,omitempty"`
	CurrentLocation string             `json:"current_location"`
	CurrentAction   string             `json:"current_action,omitempty"`
	Relationships   []RelationshipSpec `json:"relationships,omitempty"`
}

// RelationshipSpec is one directed relationship.
type RelationshipSpec struct {
	Type    string  `json:"type"`
	With    string  `json:"with"`
	Valence float64 `json:"valence,omitempty"`
}

// LocationSpec describes a location.
type LocationSpec struct {
	Name        string             `json:"name"`
	X           *float64           `json:"x,omitempty"`
	Y           *float64           `json:"y,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Connections map[string]float64 `json:"connections,omitempty"`
}

// Paths names the files of a split world.
type Paths struct {
	Actions   string `json:"Actions"`
	Agents    string `json:"Agents"`
	Locations string `json:"Locations"`
	Motives   string `json:"Motives,omitempty"` // Optional list of motive names
}

// LoadWorld reads, validates and decodes a single-document world.
func LoadWorld(path string) (*World, error) {
	var w World
	if err := decodeFile(path, schemaWorld, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// LoadWorldFromPaths reads a paths file and the three files it names.
// Relative entries are resolved against the paths file's directory.
func LoadWorldFromPaths(pathsFile string) (*World, error) {
	var p Paths
	if err := decodeFile(pathsFile, schemaPaths, &p); err != nil {
		return nil, err
	}
	dir := filepath.Dir(pathsFile)
	resolve := func(key, rel string) (string, error) {
		if rel == "" {
			return "", configErr(key, ErrMissingPath)
		}
		if filepath.IsAbs(rel) {
			return rel, nil
		}
		return filepath.Join(dir, rel), nil
	}

	var w World
	for _, part := range []struct {
		key, rel, schema string
		into             any
	}{
		{"Actions", p.Actions, schemaActions, &w.Actions},
		{"Agents", p.Agents, schemaAgents, &w.Agents},
		{"Locations", p.Locations, schemaLocations, &w.Locations},
	} {
		full, err := resolve(part.key, part.rel)
		if err != nil {
			return nil, err
		}
		if err := decodeFile(full, part.schema, part.into); err != nil {
			return nil, err
		}
	}
	if p.Motives != "" {
		full, _ := resolve("Motives", p.Motives)
		if err := decodeFile(full, noSchema, &w.Motives); err != nil {
			return nil, err
		}
	}
	return &w, nil
}

// Load picks LoadWorldFromPaths for documents whose top level carries an
// "Actions" path entry and LoadWorld otherwise.
func Load(path string) (*World, error) {
	raw, err := toJSON(path)
	if err != nil {
		return nil, err
	}
	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err == nil {
		if _, ok := probe["Actions"]; ok {
			return LoadWorldFromPaths(path)
		}
	}
	return LoadWorld(path)
}

// decodeFile converts a JSON or YAML file to JSON, validates it against the
// schema fragment and decodes it into into.
func decodeFile(path, fragment string, into any) error {
	raw, err := toJSON(path)
	if err != nil {
		return err
	}
	if fragment != noSchema {
		if err := validate(raw, fragment); err != nil {
			return configErr(path, err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("%s: decode: %w", path, err)
	}
	return nil
}

// toJSON reads path and re-encodes YAML documents as JSON. JSON input is a
// YAML subset and takes the same route.
func toJSON(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func validate(raw []byte, fragment string) error {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(worldSchema)); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	schema, err := c.Compile(schemaURL + fragment)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// Save writes w as YAML when path ends in .yaml or .yml and as indented
// JSON otherwise.
func Save(path string, w *World) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		// Round-trip through JSON so the YAML keys match the JSON tags.
		var js []byte
		js, err = json.Marshal(w)
		if err == nil {
			var doc any
			if err = yaml.Unmarshal(js, &doc); err == nil {
				data, err = yaml.Marshal(doc)
			}
		}
	default:
		data, err = json.MarshalIndent(w, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode world: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write world: %w", err)
	}
	return nil
}
