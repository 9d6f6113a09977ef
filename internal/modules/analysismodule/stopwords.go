package analysismodule

// WordSet is an immutable membership set built once at startup and shared
// by reference across analyzers.
type WordSet map[string]struct{}

// NewWordSet builds a set from a word list.
func NewWordSet(words ...string) WordSet {
	s := make(WordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s WordSet) Contains(w string) bool {
	_, ok := s[w]
	return ok
}

// DefaultFilteredPhrases returns recurring boilerplate bigrams that carry no
// signal: social sharing widgets and site chrome picked up by transcription.
func DefaultFilteredPhrases() WordSet {
	return NewWordSet(
		"artículos relacionados",
		"adn digital",
		"share tweet",
		"tweet share",
		"copy link",
		"link copied",
	)
}

// DefaultStopWords returns the Spanish stop-word set used for transcript
// frequency analysis.
func DefaultStopWords() WordSet {
	return NewWordSet(
		"algo", "alguna", "algunas", "alguno", "algunos", "algún",
		"ante", "antes", "aquel", "aquella", "aquellas", "aquellos",
		"aqui", "aquí", "así", "aunque", "bajo", "bien", "cada",
		"casi", "como", "cómo", "con", "contra", "cual", "cuales",
		"cualquier", "cuando", "cuándo", "cuanto", "cuánto", "del",
		"desde", "donde", "dónde", "dos", "durante", "ella", "ellas",
		"ellos", "entonces", "entre", "era", "eran", "eres", "esa",
		"esas", "ese", "eso", "esos", "esta", "estaba", "estaban",
		"estamos", "estar", "estas", "este", "esto", "estos", "estoy",
		"está", "están", "fue", "fueron", "gran", "haber", "habia",
		"había", "hace", "hacen", "hacer", "hacia", "han", "has",
		"hasta", "hay", "hemos", "hoy", "las", "les", "los", "luego",
		"más", "mas", "me", "menos", "mientras", "misma", "mismas",
		"mismo", "mismos", "mucha", "muchas", "mucho", "muchos", "muy",
		"nada", "nos", "nosotros", "nuestra", "nuestras", "nuestro",
		"nuestros", "otra", "otras", "otro", "otros", "para", "pero",
		"poco", "por", "porque", "pues", "que", "quien", "quienes",
		"qué", "ser", "sido", "siempre", "sin", "sobre", "son", "soy",
		"sus", "también", "tan", "tanto", "tenemos", "tener", "tengo",
		"tiene", "tienen", "toda", "todas", "todo", "todos", "tras",
		"una", "unas", "uno", "unos", "usted", "ustedes", "vamos",
		"varias", "varios", "veces", "ver", "vez", "ya", "yo",
	)
}
