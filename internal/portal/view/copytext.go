package view

import (
	"strings"

	"github.com/aussiebroadwan/portalfiscal/pkg/fiscalsdk"
)

const separator = "---------------------------------"

// CopyText is the plain-text block a client pastes into their invoicing
// software. data must be complete.
func CopyText(data *fiscalsdk.ClientData) string {
	id, c := data.DatosFijos, data.Cliente

	lines := []string{
		"DATOS FISCALES",
		separator,
		"Nombre/Razón Social: " + id.Nombre,
		"RFC: " + id.RFC,
		"Calle: " + id.Calle,
		"Número Exterior: " + string(id.NumExt),
		"Colonia: " + id.Colonia,
		"Municipio/Localidad: " + id.Municipio,
		"Estado: " + id.Estado,
		"C.P.: " + string(id.CP),
		"Régimen Fiscal: " + id.RegimenFiscal,
		"Correo Electrónico: " + id.CorreoElectronico,
		separator,
		"USO DE CFDI: " + c.UsoCfdiClave + " - " + c.UsoCfdiDescripcion,
		"FORMA DE PAGO: " + c.FormaPagoClave + " - " + c.FormaPagoDescripcion,
	}
	return strings.Join(lines, "\n")
}

// AddressLine composes the single-line fiscal address shown on the page.
func AddressLine(id *fiscalsdk.FiscalIdentity) string {
	var b strings.Builder
	b.WriteString(id.Calle)
	b.WriteString(" No. Ext. ")
	b.WriteString(string(id.NumExt))
	b.WriteString(", Col. ")
	b.WriteString(id.Colonia)
	b.WriteString(", ")
	b.WriteString(id.Municipio)
	b.WriteString(", ")
	b.WriteString(id.Estado)
	b.WriteString(", C.P. ")
	b.WriteString(string(id.CP))
	return b.String()
}
