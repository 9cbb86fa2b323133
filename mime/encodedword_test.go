package mime

import "testing"

func TestDecodeEncodedWordsQ(t *testing.T) {
	got := DecodeEncodedWords("=?UTF-8?Q?Caf=C3=A9?=")
	if got != "Café" {
		t.Errorf("got %q, want %q", got, "Café")
	}
}

func TestDecodeEncodedWordsB(t *testing.T) {
	// "hello" base64-encoded.
	got := DecodeEncodedWords("=?UTF-8?B?aGVsbG8=?=")
	if got != "hello" {
		t.Errorf("got %q, want hello", got)
	}
}

func TestDecodeEncodedWordsQUnderscoreIsSpace(t *testing.T) {
	got := DecodeEncodedWords("=?UTF-8?Q?a_b_c?=")
	if got != "a b c" {
		t.Errorf("got %q, want %q", got, "a b c")
	}
}

func TestDecodeEncodedWordsAdjacentSameCharsetJoins(t *testing.T) {
	got := DecodeEncodedWords("=?UTF-8?Q?Hello,?= =?UTF-8?Q?_World!?=")
	if got != "Hello, World!" {
		t.Errorf("got %q, want %q", got, "Hello, World!")
	}
}

func TestDecodeEncodedWordsPlainTextUnaffected(t *testing.T) {
	got := DecodeEncodedWords("plain ascii subject")
	if got != "plain ascii subject" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeEncodedWordsMixedPlainAndEncoded(t *testing.T) {
	got := DecodeEncodedWords("prefix =?UTF-8?Q?mid?= suffix")
	if got != "prefix mid suffix" {
		t.Errorf("got %q", got)
	}
}
