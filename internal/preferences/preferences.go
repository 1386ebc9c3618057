// Package preferences holds the user preferences persisted between runs and
// the temporary preferences of one session.
package preferences

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Preference names passed to subscribers.
const (
	Language              = "language"
	GameSpeedFactor       = "gameSpeedFactor"
	ClassicSentence       = "classicSentence"
	RetroFonts            = "retroFonts"
	RightClickSkipsDialog = "rightClickSkipsDialog"
)

// Temporary preference names.
const (
	TempForceTalkieText = "forceTalkieText"
	TempShowHotspot     = "showHotspot"
)

// ErrUnsupportedLanguage is returned for a language without game assets.
var ErrUnsupportedLanguage = errors.New("preferences: unsupported language")

// ErrInvalidSpeed is returned for a non-positive game speed factor.
var ErrInvalidSpeed = errors.New("preferences: game speed factor must be > 0")

// Supported lists the languages the game ships assets for. The first is the default.
var Supported = []language.Tag{language.English, language.French, language.Italian, language.German, language.Spanish}

var matcher = language.NewMatcher(Supported)

// Values are the persisted user preferences.
type Values struct {
	Language              string  `toml:"language"`
	GameSpeedFactor       float64 `toml:"gameSpeedFactor"`
	ClassicSentence       bool    `toml:"classicSentence"`
	RetroFonts            bool    `toml:"retroFonts"`
	RightClickSkipsDialog bool    `toml:"rightClickSkipsDialog"`
}

// Defaults returns the preferences of a fresh installation.
func Defaults() Values {
	return Values{Language: "en", GameSpeedFactor: 1}
}

// Store owns the preferences and notifies subscribers of changes.
type Store struct {
	path     string
	maxSpeed float64
	values   Values
	temp     map[string]bool
	subs     []func(name string)
	logger   *zap.Logger
}

// New returns a Store holding Defaults. An empty path keeps preferences in memory.
//
// Precondition: maxSpeed >= 1; logger must be non-nil.
func New(path string, maxSpeed float64, logger *zap.Logger) *Store {
	return &Store{
		path:     path,
		maxSpeed: maxSpeed,
		values:   Defaults(),
		temp:     make(map[string]bool),
		logger:   logger,
	}
}

// Load returns a Store initialized from the TOML file at path. A missing
// file yields Defaults. Invalid values are replaced by their default.
//
// Precondition: maxSpeed >= 1; logger must be non-nil.
// Postcondition: Returns a Store or an error if the file exists but cannot be parsed.
func Load(path string, maxSpeed float64, logger *zap.Logger) (*Store, error) {
	s := New(path, maxSpeed, logger)
	if path == "" {
		return s, nil
	}
	v := Defaults()
	if _, err := toml.DecodeFile(path, &v); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading preferences %s: %w", path, err)
	}
	if code, err := matchLanguage(v.Language); err == nil {
		s.values.Language = code
	} else {
		logger.Warn("preferences: ignoring language", zap.String("language", v.Language), zap.Error(err))
	}
	s.values.GameSpeedFactor = s.clampSpeed(v.GameSpeedFactor)
	s.values.ClassicSentence = v.ClassicSentence
	s.values.RetroFonts = v.RetroFonts
	s.values.RightClickSkipsDialog = v.RightClickSkipsDialog
	return s, nil
}

// Save writes the user preferences to the Store path.
//
// Postcondition: No-op for an in-memory Store.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating preferences dir: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("creating preferences file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(s.values); err != nil {
		f.Close()
		return fmt.Errorf("encoding preferences: %w", err)
	}
	return f.Close()
}

// Subscribe registers fn to be called with the name of every changed preference.
func (s *Store) Subscribe(fn func(name string)) {
	s.subs = append(s.subs, fn)
}

func (s *Store) notify(name string) {
	for _, fn := range s.subs {
		fn(name)
	}
}

// Values returns a copy of the user preferences.
func (s *Store) Values() Values { return s.values }

// Language returns the language code, e.g. "en".
func (s *Store) Language() string { return s.values.Language }

func matchLanguage(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedLanguage, code, err)
	}
	_, i, conf := matcher.Match(tag)
	if conf == language.No {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	base, _ := Supported[i].Base()
	return base.String(), nil
}

// SetLanguage selects the closest supported language to code.
//
// Postcondition: Returns an error wrapping ErrUnsupportedLanguage when no
// supported language matches.
func (s *Store) SetLanguage(code string) error {
	matched, err := matchLanguage(code)
	if err != nil {
		return err
	}
	if matched == s.values.Language {
		return nil
	}
	s.values.Language = matched
	s.notify(Language)
	return nil
}

func (s *Store) clampSpeed(f float64) float64 {
	if f <= 0 {
		return 1
	}
	return min(f, s.maxSpeed)
}

// GameSpeedFactor returns the multiplier applied to elapsed frame time.
func (s *Store) GameSpeedFactor() float64 { return s.values.GameSpeedFactor }

// SetGameSpeedFactor sets the speed multiplier, capped at the configured maximum.
//
// Postcondition: Returns ErrInvalidSpeed for f <= 0.
func (s *Store) SetGameSpeedFactor(f float64) error {
	if f <= 0 {
		return ErrInvalidSpeed
	}
	f = s.clampSpeed(f)
	if f == s.values.GameSpeedFactor {
		return nil
	}
	s.values.GameSpeedFactor = f
	s.notify(GameSpeedFactor)
	return nil
}

// Bool returns a boolean user preference. Unknown names report false.
func (s *Store) Bool(name string) bool {
	switch name {
	case ClassicSentence:
		return s.values.ClassicSentence
	case RetroFonts:
		return s.values.RetroFonts
	case RightClickSkipsDialog:
		return s.values.RightClickSkipsDialog
	}
	return false
}

// SetBool sets a boolean user preference.
//
// Postcondition: Returns an error for a name that is not a boolean preference.
func (s *Store) SetBool(name string, v bool) error {
	var field *bool
	switch name {
	case ClassicSentence:
		field = &s.values.ClassicSentence
	case RetroFonts:
		field = &s.values.RetroFonts
	case RightClickSkipsDialog:
		field = &s.values.RightClickSkipsDialog
	default:
		return fmt.Errorf("preferences: %q is not a boolean preference", name)
	}
	if *field == v {
		return nil
	}
	*field = v
	s.notify(name)
	return nil
}

// Temp returns a temporary preference, or def when unset.
func (s *Store) Temp(name string, def bool) bool {
	if v, ok := s.temp[name]; ok {
		return v
	}
	return def
}

// SetTemp sets a temporary preference. Temporary preferences are never written to disk.
func (s *Store) SetTemp(name string, v bool) {
	if old, ok := s.temp[name]; ok && old == v {
		return
	}
	s.temp[name] = v
	s.notify(name)
}
