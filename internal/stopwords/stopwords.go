// Package stopwords maps storefront countries to per-language stopword lists.
//
// The tables live in data/ as JSON and are embedded at build time. A directory
// holding replacement languages.json and countries.json files can be loaded
// with Load.
package stopwords

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// DefaultLanguage is used for unmapped countries and languages without a list
const DefaultLanguage = "en"

//go:embed data/languages.json data/countries.json
var embedded embed.FS

// Registry resolves a country to the stopword set of its canonical language
type Registry struct {
	languages map[string]map[string]struct{}
	countries map[string]string
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the registry built from the embedded tables
func Default() *Registry {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			defaultErr = err
			return
		}
		defaultRegistry, defaultErr = load(sub)
	})
	if defaultErr != nil {
		// The embedded tables are part of the binary; failing here is a build defect.
		panic(fmt.Sprintf("stopwords: embedded tables: %v", defaultErr))
	}
	return defaultRegistry
}

// Load reads languages.json and countries.json from dir
func Load(dir string) (*Registry, error) {
	return load(os.DirFS(dir))
}

func load(fsys fs.FS) (*Registry, error) {
	var languages map[string][]string
	if err := readJSON(fsys, "languages.json", &languages); err != nil {
		return nil, err
	}
	var countries map[string]string
	if err := readJSON(fsys, "countries.json", &countries); err != nil {
		return nil, err
	}
	if _, ok := languages[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("stopwords: languages.json has no %q list", DefaultLanguage)
	}

	r := &Registry{
		languages: make(map[string]map[string]struct{}, len(languages)),
		countries: make(map[string]string, len(countries)),
	}
	for lang, words := range languages {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[strings.ToLower(w)] = struct{}{}
		}
		r.languages[strings.ToLower(lang)] = set
	}
	for country, lang := range countries {
		r.countries[strings.ToLower(country)] = strings.ToLower(lang)
	}
	return r, nil
}

func readJSON(fsys fs.FS, name string, out any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("stopwords: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("stopwords: parse %s: %w", name, err)
	}
	return nil
}

// Language returns the language whose list applies to country
func (r *Registry) Language(country string) string {
	lang, ok := r.countries[strings.ToLower(country)]
	if !ok {
		return DefaultLanguage
	}
	if _, ok := r.languages[lang]; !ok {
		return DefaultLanguage
	}
	return lang
}

// Set is a read-only stopword set
type Set map[string]struct{}

// Contains reports whether the lower-cased word is a stopword
func (s Set) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// ForCountry returns the stopword set for country
func (r *Registry) ForCountry(country string) Set {
	return Set(r.languages[r.Language(country)])
}
