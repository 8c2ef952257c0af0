package locales

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Language is a supported UI locale tag.
type Language string

const (
	ZhCN Language = "zh-CN"
	EnUS Language = "en-US"

	Default  = ZhCN
	Fallback = EnUS
)

// Locale is a selectable language as shown in the language picker.
type Locale struct {
	Name  string   `json:"name"`
	Value Language `json:"value"`
}

// Locales lists the selectable languages in display order.
var Locales = []Locale{
	{Name: "中文", Value: ZhCN},
	{Name: "English", Value: EnUS},
}

//go:embed messages/*.yml
var messageFS embed.FS

var matcher = language.NewMatcher([]language.Tag{
	language.MustParse(string(Default)),
	language.MustParse(string(EnUS)),
})

// Bundle maps each language to its flattened messages ("nav.project").
type Bundle struct {
	messages map[Language]map[string]string
}

// Load reads the embedded message files.
func Load() (*Bundle, error) {
	entries, err := messageFS.ReadDir("messages")
	if err != nil {
		return nil, err
	}
	b := &Bundle{messages: map[Language]map[string]string{}}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yml" {
			continue
		}
		data, err := messageFS.ReadFile(path.Join("messages", name))
		if err != nil {
			return nil, err
		}
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		flat := map[string]string{}
		flatten("", tree, flat)
		b.messages[Language(strings.TrimSuffix(name, ".yml"))] = flat
	}
	for _, l := range Locales {
		if _, ok := b.messages[l.Value]; !ok {
			return nil, fmt.Errorf("missing messages for %s", l.Value)
		}
	}
	return b, nil
}

// MustLoad is Load for package initialization.
func MustLoad() *Bundle {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Lookup returns the message for key in lang, then in the fallback
// language, then the key itself.
func (b *Bundle) Lookup(lang Language, key string) string {
	if msg, ok := b.messages[lang][key]; ok {
		return msg
	}
	if msg, ok := b.messages[Fallback][key]; ok {
		return msg
	}
	return key
}

// Format is Lookup with {name} placeholders replaced from args.
func (b *Bundle) Format(lang Language, key string, args map[string]any) string {
	msg := b.Lookup(lang, key)
	if len(args) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Keys returns the sorted message keys of lang.
func (b *Bundle) Keys(lang Language) []string {
	keys := make([]string, 0, len(b.messages[lang]))
	for k := range b.messages[lang] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Supported reports whether lang has a message set.
func (b *Bundle) Supported(lang Language) bool {
	_, ok := b.messages[lang]
	return ok
}

// Negotiate picks the best supported language for an Accept-Language
// style value. Empty or unparseable input yields Default.
func Negotiate(accept string) Language {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return Locales[idx].Value
}
