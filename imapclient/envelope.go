package imapclient

import (
	netmail "net/mail"
	"strings"

	mail "github.com/azdigi/mailgo"
	"github.com/azdigi/mailgo/wire"
)

// parseEnvelope parses a FETCH ENVELOPE value's unparenthesized inner
// text (the bytes between the outer "(" and ")", as handed back by
// extractParenthesized) into a structured Envelope, per RFC 3501
// §7.4.2.
func parseEnvelope(raw string) (*mail.Envelope, error) {
	d := wire.NewDecoder(strings.NewReader("(" + raw + ")"))
	return readEnvelope(d)
}

// readEnvelope reads one "(" env-date SP env-subject SP ... ")" value
// from d, consuming its own enclosing parens.
func readEnvelope(d *wire.Decoder) (*mail.Envelope, error) {
	if err := d.ExpectByte('('); err != nil {
		return nil, err
	}

	env := &mail.Envelope{}

	dateStr, _, err := d.ReadNString()
	if err != nil {
		return nil, err
	}
	if dateStr != "" {
		if t, err := netmail.ParseDate(dateStr); err == nil {
			env.Date = t
		}
	}
	if err := d.ReadSP(); err != nil {
		return nil, err
	}

	if env.Subject, _, err = d.ReadNString(); err != nil {
		return nil, err
	}
	if err := d.ReadSP(); err != nil {
		return nil, err
	}

	addrLists := []*[]*mail.Address{&env.From, &env.Sender, &env.ReplyTo, &env.To, &env.Cc, &env.Bcc}
	for _, list := range addrLists {
		*list, err = readAddressList(d)
		if err != nil {
			return nil, err
		}
		if err := d.ReadSP(); err != nil {
			return nil, err
		}
	}

	if env.InReplyTo, _, err = d.ReadNString(); err != nil {
		return nil, err
	}
	if err := d.ReadSP(); err != nil {
		return nil, err
	}
	if env.MessageID, _, err = d.ReadNString(); err != nil {
		return nil, err
	}

	if err := d.ExpectByte(')'); err != nil {
		return nil, err
	}
	return env, nil
}

// readAddressList reads an env-from/env-to/etc value: NIL or a
// parenthesized list of 4-field addresses.
func readAddressList(d *wire.Decoder) ([]*mail.Address, error) {
	b, err := d.PeekByte()
	if err != nil {
		return nil, err
	}
	if b != '(' {
		if _, err := d.ReadAtom(); err != nil { // consumes "NIL"
			return nil, err
		}
		return nil, nil
	}

	var addrs []*mail.Address
	err = d.ReadList(func() error {
		addr, err := readAddress(d)
		if err != nil {
			return err
		}
		addrs = append(addrs, addr)
		return nil
	})
	return addrs, err
}

// readAddress reads one "(" addr-name SP addr-adl SP addr-mailbox SP
// addr-host ")" value. addr-adl (source route) is parsed but unused,
// per RFC 3501's own note that it is obsolete.
func readAddress(d *wire.Decoder) (*mail.Address, error) {
	var fields []string
	err := d.ReadList(func() error {
		s, _, err := d.ReadNString()
		if err != nil {
			return err
		}
		fields = append(fields, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	addr := &mail.Address{}
	if len(fields) > 0 {
		addr.Name = fields[0]
	}
	if len(fields) > 2 {
		addr.Mailbox = fields[2]
	}
	if len(fields) > 3 {
		addr.Host = fields[3]
	}
	return addr, nil
}

// parseBodyStructure parses a FETCH BODY/BODYSTRUCTURE value's
// unparenthesized inner text into a structured BodyStructure, per
// RFC 3501 §7.4.2.
func parseBodyStructure(raw string) (*mail.BodyStructure, error) {
	d := wire.NewDecoder(strings.NewReader(raw))
	return readBodyStructure(d)
}

// readBodyStructure reads a body-type-1part or body-type-mpart value,
// without its enclosing parens (the caller, or the top-level raw
// text, has already stripped them).
func readBodyStructure(d *wire.Decoder) (*mail.BodyStructure, error) {
	b, err := d.PeekByte()
	if err != nil {
		return nil, err
	}
	if b == '(' {
		return readMultipartBodyStructure(d)
	}
	return readSinglePartBodyStructure(d)
}

// readChildBody reads one full "(" body-type ")" value, for a
// multipart's children or an embedded message/rfc822 body.
func readChildBody(d *wire.Decoder) (*mail.BodyStructure, error) {
	if err := d.ExpectByte('('); err != nil {
		return nil, err
	}
	child, err := readBodyStructure(d)
	if err != nil {
		return nil, err
	}
	if err := d.ExpectByte(')'); err != nil {
		return nil, err
	}
	return child, nil
}

func readMultipartBodyStructure(d *wire.Decoder) (*mail.BodyStructure, error) {
	bs := &mail.BodyStructure{Type: "multipart"}

	for {
		b, err := d.PeekByte()
		if err != nil {
			return nil, err
		}
		if b != '(' {
			break
		}
		child, err := readChildBody(d)
		if err != nil {
			return nil, err
		}
		bs.Children = append(bs.Children, *child)

		nb, err := d.PeekByte()
		if err != nil {
			return nil, err
		}
		if nb == ' ' {
			if err := d.ReadSP(); err != nil {
				return nil, err
			}
		}
	}

	subtype, _, err := d.ReadNString()
	if err != nil {
		return nil, err
	}
	bs.Subtype = subtype

	if maybeSP(d) {
		if err := parseBodyExtMpart(d, bs); err != nil {
			return nil, err
		}
	}
	return bs, nil
}

func readSinglePartBodyStructure(d *wire.Decoder) (*mail.BodyStructure, error) {
	typ, _, err := d.ReadNString()
	if err != nil {
		return nil, err
	}
	if err := d.ReadSP(); err != nil {
		return nil, err
	}
	subtype, _, err := d.ReadNString()
	if err != nil {
		return nil, err
	}
	if err := d.ReadSP(); err != nil {
		return nil, err
	}

	bs := &mail.BodyStructure{Type: typ, Subtype: subtype}

	params, id, desc, enc, octets, err := readBodyFields(d)
	if err != nil {
		return nil, err
	}
	bs.Params, bs.ID, bs.Description, bs.Encoding, bs.Size = params, id, desc, enc, octets

	switch {
	case strings.EqualFold(typ, "message") && strings.EqualFold(subtype, "rfc822"):
		if err := d.ReadSP(); err != nil {
			return nil, err
		}
		env, err := readEnvelope(d)
		if err != nil {
			return nil, err
		}
		bs.Envelope = env
		if err := d.ReadSP(); err != nil {
			return nil, err
		}
		child, err := readChildBody(d)
		if err != nil {
			return nil, err
		}
		bs.BodyStructure = child
		if err := d.ReadSP(); err != nil {
			return nil, err
		}
		lines, err := d.ReadNumber()
		if err != nil {
			return nil, err
		}
		bs.Lines = lines
	case strings.EqualFold(typ, "text"):
		if err := d.ReadSP(); err != nil {
			return nil, err
		}
		lines, err := d.ReadNumber()
		if err != nil {
			return nil, err
		}
		bs.Lines = lines
	}

	if maybeSP(d) {
		if err := parseBodyExt1Part(d, bs); err != nil {
			return nil, err
		}
	}
	return bs, nil
}

// readBodyFields reads the body-fields common to every 1-part body:
// parameters, Content-ID, Content-Description, Content-Transfer-
// Encoding and the octet count.
func readBodyFields(d *wire.Decoder) (params map[string]string, id, desc, enc string, octets uint32, err error) {
	if params, err = readParamList(d); err != nil {
		return
	}
	if err = d.ReadSP(); err != nil {
		return
	}
	if id, _, err = d.ReadNString(); err != nil {
		return
	}
	if err = d.ReadSP(); err != nil {
		return
	}
	if desc, _, err = d.ReadNString(); err != nil {
		return
	}
	if err = d.ReadSP(); err != nil {
		return
	}
	if enc, _, err = d.ReadNString(); err != nil {
		return
	}
	if err = d.ReadSP(); err != nil {
		return
	}
	octets, err = d.ReadNumber()
	return
}

// parseBodyExtMpart reads the optional multipart extension data:
// Content-Type parameters, disposition, language, and location.
func parseBodyExtMpart(d *wire.Decoder, bs *mail.BodyStructure) error {
	params, err := readParamList(d)
	if err != nil {
		return err
	}
	bs.Params = params
	return parseBodyExtTail(d, bs)
}

// parseBodyExt1Part reads the optional 1-part extension data: MD5,
// disposition, language, and location.
func parseBodyExt1Part(d *wire.Decoder, bs *mail.BodyStructure) error {
	md5, _, err := d.ReadNString()
	if err != nil {
		return err
	}
	bs.MD5 = md5
	return parseBodyExtTail(d, bs)
}

// parseBodyExtTail reads the disposition/language/location fields
// shared by body-ext-1part and body-ext-mpart, each optional and each
// preceded by an SP only if present.
func parseBodyExtTail(d *wire.Decoder, bs *mail.BodyStructure) error {
	if !maybeSP(d) {
		return nil
	}
	disp, dispParams, err := readDisposition(d)
	if err != nil {
		return err
	}
	bs.Disposition = disp
	bs.DispositionParams = dispParams

	if !maybeSP(d) {
		return nil
	}
	langs, err := readLanguage(d)
	if err != nil {
		return err
	}
	bs.Language = langs

	if !maybeSP(d) {
		return nil
	}
	loc, _, err := d.ReadNString()
	if err != nil {
		return err
	}
	bs.Location = loc
	return nil
}

// readParamList reads a body-fld-param value: NIL or a flat list of
// alternating name/value strings.
func readParamList(d *wire.Decoder) (map[string]string, error) {
	b, err := d.PeekByte()
	if err != nil {
		return nil, err
	}
	if b != '(' {
		if _, err := d.ReadAtom(); err != nil { // consumes "NIL"
			return nil, err
		}
		return nil, nil
	}

	params := make(map[string]string)
	idx := 0
	var key string
	err = d.ReadList(func() error {
		s, _, err := d.ReadNString()
		if err != nil {
			return err
		}
		if idx%2 == 0 {
			key = s
		} else {
			params[key] = s
		}
		idx++
		return nil
	})
	return params, err
}

// readDisposition reads a body-fld-dsp value: NIL or "(" string SP
// body-fld-param ")".
func readDisposition(d *wire.Decoder) (string, map[string]string, error) {
	b, err := d.PeekByte()
	if err != nil {
		return "", nil, err
	}
	if b != '(' {
		if _, err := d.ReadAtom(); err != nil { // consumes "NIL"
			return "", nil, err
		}
		return "", nil, nil
	}

	var disp string
	var params map[string]string
	idx := 0
	err = d.ReadList(func() error {
		if idx == 0 {
			s, _, err := d.ReadNString()
			if err != nil {
				return err
			}
			disp = s
			idx++
			return nil
		}
		p, err := readParamList(d)
		if err != nil {
			return err
		}
		params = p
		idx++
		return nil
	})
	return disp, params, err
}

// readLanguage reads a body-fld-lang value: a single nstring, or a
// parenthesized list of strings.
func readLanguage(d *wire.Decoder) ([]string, error) {
	b, err := d.PeekByte()
	if err != nil {
		return nil, err
	}
	if b == '(' {
		var langs []string
		err := d.ReadList(func() error {
			s, err := d.ReadAString()
			if err != nil {
				return err
			}
			langs = append(langs, s)
			return nil
		})
		return langs, err
	}

	s, ok, err := d.ReadNString()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []string{s}, nil
}

// maybeSP reports whether the next byte is a single SP, consuming it
// if so. It is used to detect the presence of an optional trailing
// field without needing a multi-byte lookahead.
func maybeSP(d *wire.Decoder) bool {
	b, err := d.PeekByte()
	if err != nil || b != ' ' {
		return false
	}
	return d.ReadSP() == nil
}
