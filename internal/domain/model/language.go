package model

// Language is the programming language a problem's code is written in.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageCpp        Language = "cpp"
	LanguageOther      Language = "other"
)

var knownLanguages = map[Language]bool{
	LanguageJavaScript: true,
	LanguagePython:     true,
	LanguageJava:       true,
	LanguageCpp:        true,
	LanguageOther:      true,
}

func (l Language) Valid() bool {
	return knownLanguages[l]
}
