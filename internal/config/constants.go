package config

const SourceFileExt = ".mal"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".mal", ".malgeul"}

// SettingsFileName is looked up next to the program when no explicit path is given.
const SettingsFileName = "malgeul.yaml"

// Part-of-speech tags. The first seven come from the lexer; the last three are
// phrase categories that only pattern outputs produce.
const (
	PosNoun      = "명사"
	PosVerb      = "동사"
	PosAdjective = "형용사"
	PosAdverb    = "부사"
	PosParticle  = "조사"
	PosEnding    = "어미"
	PosSymbol    = "기호"
	PosPredicate = "서술"
	PosClause    = "절"
	PosSentence  = "문장"
)

// Source directives understood by the statement splitter
const (
	DirectiveVocab   = "#단어"
	DirectiveSynonym = "#같은말"
	DirectivePattern = "#약속"
	DirectiveAlias   = "#바꿈"
	DirectiveImport  = "#가져오기"
	CommentPrefix    = "//"
)

// Primitive type names
const (
	TypeNumber   = "수"
	TypeFraction = "분수"
	TypeInteger  = "정수"
	TypeBoolean  = "불"
	TypeText     = "글"
	TypeNothing  = "없음"
)

// Reserved lemmas
const (
	PronounLemma    = "그것"
	ConnectiveLemma = "와"
	TrueLemma       = "참"
	FalseLemma      = "거짓"
	ConjunctionKey  = "∧"
	PreludeName     = "prelude"
)

// Defaults for Settings
const (
	DefaultPrecision       = 34
	DefaultMaxSynonymDepth = 16
	DefaultMaxReductions   = 100000
)

// Version is reported by the command line entry.
const Version = "0.1.0"
