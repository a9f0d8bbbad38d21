package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"github.com/zapponejosh/lunisolar-api/internal/ganzhi"
)

// newValidator returns a validator that reports fields by their json name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "-" || tag == "" {
			return fld.Name
		}
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		return tag
	})
	return v
}

// validationMessage turns validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Namespace()
		if i := strings.Index(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if name == "" {
			name = "value"
		}
		switch {
		case fe.Tag() == "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must use layout %s", name, fe.Param()))
		case fe.Param() != "":
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", name, fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", name, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

var (
	scriptMatcher = language.NewMatcher([]language.Tag{language.Chinese, language.English})
	latin         = language.MustParseScript("Latn")
)

// scriptFor picks hanzi or pinyin names from the lang parameter, falling
// back to Accept-Language. Chinese is the default.
func scriptFor(lang, acceptLanguage string) ganzhi.Script {
	if strings.EqualFold(lang, "pinyin") {
		return ganzhi.Pinyin
	}

	var tags []language.Tag
	if lang != "" {
		if t, err := language.Parse(lang); err == nil {
			tags = []language.Tag{t}
		}
	}
	if tags == nil && acceptLanguage != "" {
		tags, _, _ = language.ParseAcceptLanguage(acceptLanguage)
	}
	if len(tags) == 0 {
		return ganzhi.Hanzi
	}

	// zh-Latn asks for romanized Chinese.
	if s, conf := tags[0].Script(); s == latin && conf == language.Exact {
		return ganzhi.Pinyin
	}

	_, idx, conf := scriptMatcher.Match(tags...)
	if conf != language.No && idx == 1 {
		return ganzhi.Pinyin
	}
	return ganzhi.Hanzi
}
