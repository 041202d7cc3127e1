package es3_test

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
	"github.com/spf13/afero"

	"github.com/joe/repo-saves/pkg/es3"
	"github.com/joe/repo-saves/pkg/es3/es3test"
)

func TestDecrypt_RoundTripsEncrypt(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	plaintext := []byte(`{"hello":"world"}`)
	fsys := afero.NewMemMapFs()
	g.Expect(afero.WriteFile(fsys, "/save.es3", es3test.Encrypted(plaintext), 0o600)).To(Succeed())

	got, err := es3.Decrypt(fsys, "/save.es3", es3.Passphrase)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(got).To(Equal(plaintext))
}

func TestDecrypt_BlockAlignedPlaintextGetsFullPaddingBlock(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	plaintext := []byte(`{"sixteen-bytes":1}`)[:16]
	plaintext[15] = '}'
	sealed, err := es3.Encrypt(plaintext, es3.Passphrase, es3test.FixedIV)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(sealed).To(HaveLen(16 + 32))
}

func TestDecrypt_GzipPayload(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	doc := es3test.Document(es3test.Save{Level: 2})

	var compressed bytes.Buffer
	writer := gzip.NewWriter(&compressed)
	_, err := writer.Write(doc)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(writer.Close()).To(Succeed())

	got, err := es3.DecryptBytes(es3test.Encrypted(compressed.Bytes()), es3.Passphrase)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(got).To(Equal(doc))
}

func TestDecrypt_Failures(t *testing.T) {
	t.Parallel()

	valid := es3test.Encrypted([]byte(`{"a":1}`))

	tests := []struct {
		name string
		data []byte
		pass string
	}{
		{name: "empty", data: nil, pass: es3.Passphrase},
		{name: "iv only", data: valid[:16], pass: es3.Passphrase},
		{name: "not block aligned", data: valid[:len(valid)-3], pass: es3.Passphrase},
		{name: "wrong passphrase", data: valid, pass: "not the passphrase"},
		{name: "not json", data: es3test.Encrypted([]byte("plain words")), pass: es3.Passphrase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			_, err := es3.DecryptBytes(tt.data, tt.pass)
			g.Expect(err).To(MatchError(es3.ErrDecryptFailure))
		})
	}
}

func TestDecrypt_MissingFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := es3.Decrypt(afero.NewMemMapFs(), "/nope.es3", es3.Passphrase)
	g.Expect(err).To(MatchError(es3.ErrDecryptFailure))
}

func TestDecode_ExtractsFields(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	save, err := es3.Decode(es3test.Document(es3test.Save{
		Level:      3,
		Players:    map[string]string{"76561": "Alice", "76562": "Bob"},
		TimePlayed: 90.5,
		SavedAt:    "2025-04-12",
		TeamName:   "R.E.P.O.",
	}))
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(save.Level()).To(Equal(3))
	g.Expect(save.PlayerNames).To(HaveLen(2))
	g.Expect(save.PlayTime().Seconds()).To(BeNumerically("~", 90.5))
	g.Expect(save.DateAndTime).To(Equal("2025-04-12"))
	g.Expect(save.TeamName).To(Equal("R.E.P.O."))
}

func TestDecode_LevelDefaultsToZero(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	save, err := es3.Decode(es3test.Document(es3test.Save{OmitLevel: true}))
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(save.Level()).To(Equal(0))
}

func TestDecode_SchemaMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty object", doc: `{}`},
		{name: "no run stats", doc: `{"dictionaryOfDictionaries":{"value":{}},"playerNames":{"value":{}},` +
			`"timePlayed":{"value":1},"dateAndTime":{"value":""},"teamName":{"value":""}}`},
		{name: "players wrong type", doc: `{"dictionaryOfDictionaries":{"value":{"runStats":{}}},"playerNames":{"value":[]},` +
			`"timePlayed":{"value":1},"dateAndTime":{"value":""},"teamName":{"value":""}}`},
		{name: "missing team", doc: `{"dictionaryOfDictionaries":{"value":{"runStats":{}}},"playerNames":{"value":{}},` +
			`"timePlayed":{"value":1},"dateAndTime":{"value":""}}`},
		{name: "top level array", doc: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			_, err := es3.Decode([]byte(tt.doc))
			g.Expect(err).To(MatchError(es3.ErrSchemaMismatch))
		})
	}
}
