package contentstream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// TokenType represents the type of a content stream token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenString
	TokenName
	TokenOperator
	TokenArrayStart
	TokenArrayEnd
	TokenDictStart
	TokenDictEnd
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenNumber:
		return "Number"
	case TokenString:
		return "String"
	case TokenName:
		return "Name"
	case TokenOperator:
		return "Operator"
	case TokenArrayStart:
		return "ArrayStart"
	case TokenArrayEnd:
		return "ArrayEnd"
	case TokenDictStart:
		return "DictStart"
	case TokenDictEnd:
		return "DictEnd"
	default:
		return "Unknown"
	}
}

// Token is a single lexical element of a content stream.
// Number tokens carry Num; String, Name and Operator tokens carry Text.
type Token struct {
	Type TokenType
	Num  float64
	Text string
}

// Lexer tokenizes page content streams
type Lexer struct {
	reader *bufio.Reader
	buffer []byte
	pos    int64
}

// NewLexer creates a new content stream lexer
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(r),
		buffer: make([]byte, 0, 64),
	}
}

// Position returns the number of bytes consumed so far
func (l *Lexer) Position() int64 {
	return l.pos
}

// NextToken returns the next token from the stream.
// At the end of input it returns a TokenEOF token and a nil error.
func (l *Lexer) NextToken() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		if err == io.EOF {
			return Token{Type: TokenEOF}, nil
		}
		return Token{}, err
	}

	ch, err := l.peekByte()
	if err != nil {
		if err == io.EOF {
			return Token{Type: TokenEOF}, nil
		}
		return Token{}, err
	}

	switch ch {
	case '[':
		l.readByte()
		return Token{Type: TokenArrayStart}, nil
	case ']':
		l.readByte()
		return Token{Type: TokenArrayEnd}, nil
	case '<':
		l.readByte()
		next, err := l.peekByte()
		if err != nil {
			return Token{}, fmt.Errorf("unterminated hex string at %d: %w", l.pos, err)
		}
		if next == '<' {
			l.readByte()
			return Token{Type: TokenDictStart}, nil
		}
		return l.readHexString()
	case '>':
		l.readByte()
		next, err := l.readByte()
		if err != nil || next != '>' {
			return Token{}, fmt.Errorf("expected >> at offset %d", l.pos)
		}
		return Token{Type: TokenDictEnd}, nil
	case '(':
		return l.readString()
	case '/':
		return l.readName()
	case '+', '-', '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return l.readNumber()
	case ')', '{', '}':
		// Stray delimiters carry no meaning for path scanning.
		l.readByte()
		return l.NextToken()
	default:
		return l.readOperator()
	}
}

// SkipInlineImage discards inline image data following an ID operator,
// up to and including the closing EI operator.
func (l *Lexer) SkipInlineImage() error {
	// A single whitespace byte separates ID from the binary data.
	if _, err := l.readByte(); err != nil {
		return err
	}
	var window [3]byte
	for {
		b, err := l.readByte()
		if err != nil {
			return fmt.Errorf("unterminated inline image: %w", err)
		}
		window[0], window[1], window[2] = window[1], window[2], b
		if isWhitespace(window[0]) && window[1] == 'E' && window[2] == 'I' {
			next, err := l.peekByte()
			if err == io.EOF || (err == nil && (isWhitespace(next) || isDelimiter(next))) {
				return nil
			}
		}
	}
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		ch, err := l.peekByte()
		if err != nil {
			return err
		}

		if isWhitespace(ch) {
			l.readByte()
			continue
		}

		if ch == '%' {
			for {
				ch, err := l.readByte()
				if err != nil {
					return err
				}
				if ch == '\n' || ch == '\r' {
					break
				}
			}
			continue
		}

		return nil
	}
}

func (l *Lexer) peekByte() (byte, error) {
	b, err := l.reader.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (l *Lexer) readByte() (byte, error) {
	b, err := l.reader.ReadByte()
	if err == nil {
		l.pos++
	}
	return b, err
}

func (l *Lexer) readNumber() (Token, error) {
	l.buffer = l.buffer[:0]

	for {
		ch, err := l.peekByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Token{}, err
		}
		if ch == '+' || ch == '-' || ch == '.' || (ch >= '0' && ch <= '9') {
			l.readByte()
			l.buffer = append(l.buffer, ch)
			continue
		}
		break
	}

	// Producers occasionally emit "--5" or "5.-"; keep the longest valid prefix.
	str := string(bytes.TrimLeft(l.buffer, "+"))
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		f = parseLenient(str)
	}
	return Token{Type: TokenNumber, Num: f}, nil
}

func parseLenient(s string) float64 {
	for len(s) > 0 {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		s = s[:len(s)-1]
	}
	return 0
}

func (l *Lexer) readString() (Token, error) {
	l.buffer = l.buffer[:0]
	l.readByte() // (

	depth := 1
	escaped := false

	for depth > 0 {
		ch, err := l.readByte()
		if err != nil {
			return Token{}, fmt.Errorf("unterminated string: %w", err)
		}

		if escaped {
			switch ch {
			case 'n':
				l.buffer = append(l.buffer, '\n')
			case 'r':
				l.buffer = append(l.buffer, '\r')
			case 't':
				l.buffer = append(l.buffer, '\t')
			case 'b':
				l.buffer = append(l.buffer, '\b')
			case 'f':
				l.buffer = append(l.buffer, '\f')
			case '\n', '\r':
				// line continuation
			default:
				if ch >= '0' && ch <= '7' {
					octal := []byte{ch}
					for i := 0; i < 2; i++ {
						next, err := l.peekByte()
						if err != nil || next < '0' || next > '7' {
							break
						}
						l.readByte()
						octal = append(octal, next)
					}
					val, _ := strconv.ParseUint(string(octal), 8, 16)
					l.buffer = append(l.buffer, byte(val))
				} else {
					l.buffer = append(l.buffer, ch)
				}
			}
			escaped = false
			continue
		}

		switch ch {
		case '\\':
			escaped = true
		case '(':
			depth++
			l.buffer = append(l.buffer, ch)
		case ')':
			depth--
			if depth > 0 {
				l.buffer = append(l.buffer, ch)
			}
		default:
			l.buffer = append(l.buffer, ch)
		}
	}

	return Token{Type: TokenString, Text: string(l.buffer)}, nil
}

func (l *Lexer) readHexString() (Token, error) {
	l.buffer = l.buffer[:0]

	for {
		ch, err := l.readByte()
		if err != nil {
			return Token{}, fmt.Errorf("unterminated hex string: %w", err)
		}
		if ch == '>' {
			break
		}
		if isHexDigit(ch) {
			l.buffer = append(l.buffer, ch)
		} else if !isWhitespace(ch) {
			return Token{}, fmt.Errorf("invalid character %q in hex string", ch)
		}
	}

	if len(l.buffer)%2 != 0 {
		l.buffer = append(l.buffer, '0')
	}

	result := make([]byte, len(l.buffer)/2)
	for i := range result {
		val, err := strconv.ParseUint(string(l.buffer[i*2:i*2+2]), 16, 8)
		if err != nil {
			return Token{}, fmt.Errorf("invalid hex string: %w", err)
		}
		result[i] = byte(val)
	}

	return Token{Type: TokenString, Text: string(result)}, nil
}

func (l *Lexer) readName() (Token, error) {
	l.buffer = l.buffer[:0]
	l.readByte() // /

	for {
		ch, err := l.peekByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Token{}, err
		}
		if isDelimiter(ch) || isWhitespace(ch) {
			break
		}
		l.readByte()

		if ch == '#' {
			hex := make([]byte, 0, 2)
			for i := 0; i < 2; i++ {
				h, err := l.readByte()
				if err != nil {
					return Token{}, err
				}
				hex = append(hex, h)
			}
			val, err := strconv.ParseUint(string(hex), 16, 8)
			if err != nil {
				return Token{}, fmt.Errorf("invalid hex escape #%s in name", hex)
			}
			l.buffer = append(l.buffer, byte(val))
			continue
		}
		l.buffer = append(l.buffer, ch)
	}

	return Token{Type: TokenName, Text: string(l.buffer)}, nil
}

func (l *Lexer) readOperator() (Token, error) {
	l.buffer = l.buffer[:0]

	for {
		ch, err := l.peekByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Token{}, err
		}
		if isDelimiter(ch) || isWhitespace(ch) {
			break
		}
		l.readByte()
		l.buffer = append(l.buffer, ch)
	}

	return Token{Type: TokenOperator, Text: string(l.buffer)}, nil
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' || ch == 0
}

func isDelimiter(ch byte) bool {
	return ch == '(' || ch == ')' || ch == '<' || ch == '>' ||
		ch == '[' || ch == ']' || ch == '{' || ch == '}' ||
		ch == '/' || ch == '%'
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'A' && ch <= 'F') || (ch >= 'a' && ch <= 'f')
}
