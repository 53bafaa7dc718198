package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const languageKey = "lang"

// catalog language codes keyed by BCP 47 base language
var catalogCodes = map[string]string{
	"ru": "RU",
	"en": "EN",
	"kk": "KZ",
}

// normalizeCode maps user supplied codes (ru, EN, kz, kk-KZ) to catalog codes.
func normalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "kz" {
		return "KZ"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return catalogCodes[base.String()]
}

// Language resolves the display language of a request. ?lang= wins over
// Accept-Language; unsupported values fall back to defaultLang.
func Language(defaultLang string, supported []string) gin.HandlerFunc {
	fallback := normalizeCode(defaultLang)
	if fallback == "" {
		fallback = "RU"
	}
	tags := []language.Tag{}
	codes := []string{}
	for _, s := range append([]string{defaultLang}, supported...) {
		code := normalizeCode(s)
		if code == "" {
			continue
		}
		dup := false
		for _, existing := range codes {
			if existing == code {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		codes = append(codes, code)
		if code == "KZ" {
			tags = append(tags, language.Kazakh)
		} else {
			tags = append(tags, language.Make(strings.ToLower(code)))
		}
	}
	matcher := language.NewMatcher(tags)

	return func(c *gin.Context) {
		lang := ""
		if q := c.Query("lang"); q != "" {
			lang = normalizeCode(q)
			if !contains(codes, lang) {
				lang = ""
			}
		}
		if lang == "" {
			if header := c.GetHeader("Accept-Language"); header != "" {
				preferred, _, err := language.ParseAcceptLanguage(header)
				if err == nil && len(preferred) > 0 {
					_, index, confidence := matcher.Match(preferred...)
					if confidence != language.No {
						lang = codes[index]
					}
				}
			}
		}
		if lang == "" {
			lang = fallback
		}
		c.Set(languageKey, lang)
		c.Next()
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// GetLanguage returns the catalog language code chosen for the request
func GetLanguage(c *gin.Context) string {
	if lang := c.GetString(languageKey); lang != "" {
		return lang
	}
	return "RU"
}

// TranslationTargets returns the catalog codes of the supported languages
// other than the default one.
func TranslationTargets(defaultLang string, supported []string) []string {
	def := normalizeCode(defaultLang)
	var targets []string
	for _, s := range supported {
		code := normalizeCode(s)
		if code == "" || code == def || contains(targets, code) {
			continue
		}
		targets = append(targets, code)
	}
	return targets
}
