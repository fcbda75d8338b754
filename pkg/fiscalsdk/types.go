package fiscalsdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is an identifier the API may send as a JSON number or string.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

// UnmarshalJSON accepts 7, "7" and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("fiscalsdk: invalid id %s", b)
		}
		*id = ID(n.String())
		return nil
	}
}

// MarshalJSON writes canonical integer ids as numbers and anything else,
// including "01" or "+5", as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Text is a display string the API may send as a number, e.g. a postal
// code or street number stored as an integer.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var id ID
	if err := id.UnmarshalJSON(b); err != nil {
		return err
	}
	*t = Text(id)
	return nil
}

// Flag is a "truthy" boolean: true, non-zero numbers and "1"/"true" strings
// are true; everything else is false.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch t := v.(type) {
	case bool:
		*f = Flag(t)
	case float64:
		*f = t != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		*f = s == "1" || s == "true"
	default:
		*f = false
	}
	return nil
}

// CatalogItem is an entry of the CFDI use or payment form catalogues.
type CatalogItem struct {
	ID          ID     `json:"id"`
	Clave       string `json:"clave"`
	Descripcion string `json:"descripcion"`
}

// Label renders the item as "clave - descripcion".
func (i CatalogItem) Label() string {
	return i.Clave + " - " + i.Descripcion
}

// ClientLink is a client as listed on the admin screen.
type ClientLink struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	UsoCfdiID   ID     `json:"usoCfdiId,omitempty"`
	FormaPagoID ID     `json:"formaPagoId,omitempty"`
	AttachPDF   Flag   `json:"attachPdf,omitempty"`
}

type CreateClientRequest struct {
	Name        string `json:"name"`
	UsoCfdiID   ID     `json:"usoCfdiId"`
	FormaPagoID ID     `json:"formaPagoId"`
	AttachPDF   bool   `json:"attachPdf"`
}

type CreateClientResponse struct {
	ID   ID     `json:"id,omitempty"`
	Slug string `json:"slug"`
}

// ClientData is the public view of one client.
type ClientData struct {
	Cliente    *ClientProfile  `json:"cliente"`
	DatosFijos *FiscalIdentity `json:"datosFijos"`
}

// Complete reports whether both halves of the view are present.
func (d *ClientData) Complete() bool {
	return d != nil && d.Cliente != nil && d.DatosFijos != nil
}

// ClientProfile holds the client's name and assigned tax preferences.
type ClientProfile struct {
	Name                 string `json:"name"`
	UsoCfdiClave         string `json:"uso_cfdi_clave"`
	UsoCfdiDescripcion   string `json:"uso_cfdi_descripcion"`
	FormaPagoClave       string `json:"forma_pago_clave"`
	FormaPagoDescripcion string `json:"forma_pago_descripcion"`
	AttachPDF            Flag   `json:"attach_pdf"`
}

// FiscalIdentity is the issuer's fixed fiscal identity shown to every client.
type FiscalIdentity struct {
	Nombre            string `json:"nombre"`
	RFC               string `json:"rfc"`
	Calle             string `json:"calle"`
	NumExt            Text   `json:"num_ext"`
	Colonia           string `json:"colonia"`
	Municipio         string `json:"municipio"`
	Estado            string `json:"estado"`
	CP                Text   `json:"cp"`
	RegimenFiscal     string `json:"regimen_fiscal"`
	CorreoElectronico string `json:"correo_electronico"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}
