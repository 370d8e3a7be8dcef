// Package backend implementa el adaptador HTTP hacia el backend contable
// (proxy SUNAT + base de datos remota).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/contasol/sunat-registro/internal/application/dto"
	"github.com/contasol/sunat-registro/internal/application/ports"
	"github.com/contasol/sunat-registro/internal/domain/entity"
	"github.com/contasol/sunat-registro/pkg/logger"
)

// Verificar en tiempo de compilación que Client implementa BackendService.
var _ ports.BackendService = (*Client)(nil)

// Config del adaptador. Los timeouts difieren por tipo de llamada: el listado
// y la extracción pasan por el scraping de SUNAT; el resto son operaciones
// directas sobre la base de datos del backend.
type Config struct {
	BaseURL          string
	TimeoutListado   time.Duration
	TimeoutDetalle   time.Duration
	TimeoutOperacion time.Duration
}

// Client cliente REST del backend contable.
type Client struct {
	baseURL   string
	listado   *http.Client // listado de comprobantes (scraping lento)
	detalle   *http.Client // extracción de detalle (scraping lento)
	operacion *http.Client // lecturas/escrituras directas
	log       *logger.Logger
}

// New construye el cliente.
func New(cfg Config, log *logger.Logger) *Client {
	if cfg.TimeoutListado <= 0 {
		cfg.TimeoutListado = 90 * time.Second
	}
	if cfg.TimeoutDetalle <= 0 {
		cfg.TimeoutDetalle = 90 * time.Second
	}
	if cfg.TimeoutOperacion <= 0 {
		cfg.TimeoutOperacion = 15 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		listado:   &http.Client{Timeout: cfg.TimeoutListado},
		detalle:   &http.Client{Timeout: cfg.TimeoutDetalle},
		operacion: &http.Client{Timeout: cfg.TimeoutOperacion},
		log:       log,
	}
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// ListarComprobantes GET /sunat/facturas.
func (c *Client) ListarComprobantes(ctx context.Context, periodoInicio, periodoFin string, creds entity.Credenciales) (*dto.ListadoResponse, error) {
	q := url.Values{}
	q.Set("periodoInicio", periodoInicio)
	q.Set("periodoFin", periodoFin)
	q.Set("ruc", creds.RUC)
	q.Set("usuario", creds.Usuario)
	q.Set("claveSol", creds.ClaveSol)

	var out dto.ListadoResponse
	if err := c.doJSON(ctx, c.listado, http.MethodGet, "/sunat/facturas?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ObtenerFacturaUI GET /factura/ui/{numeroComprobante}.
func (c *Client) ObtenerFacturaUI(ctx context.Context, numeroComprobante string) (*dto.FacturaUIResponse, error) {
	var out dto.FacturaUIResponse
	if err := c.doJSON(ctx, c.operacion, http.MethodGet, "/factura/ui/"+url.PathEscape(numeroComprobante), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerificarFacturaRegistrada GET /factura/{numeroComprobante}.
func (c *Client) VerificarFacturaRegistrada(ctx context.Context, numeroComprobante string) error {
	var out dto.FacturaRegistrada
	return c.doJSON(ctx, c.operacion, http.MethodGet, "/factura/"+url.PathEscape(numeroComprobante), nil, &out)
}

// RegistrarDesdeSunat POST /factura/registrar-desde-sunat.
func (c *Client) RegistrarDesdeSunat(ctx context.Context, req dto.RegistrarDesdeSunatRequest) (*dto.RegistrarDesdeSunatResponse, error) {
	var out dto.RegistrarDesdeSunatResponse
	if err := c.doJSON(ctx, c.operacion, http.MethodPost, "/factura/registrar-desde-sunat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ObtenerDetalleXML POST /sunat/descargar-xml (extracción síncrona).
// Si el backend devolvió cero items pero conserva el XML crudo, se intenta
// recuperar las líneas parseando el UBL antes de devolver la respuesta.
func (c *Client) ObtenerDetalleXML(ctx context.Context, req dto.DetalleFacturaRequest) (*dto.DetalleXMLResponse, error) {
	var out dto.DetalleXMLResponse
	if err := c.doJSON(ctx, c.detalle, http.MethodPost, "/sunat/descargar-xml", req, &out); err != nil {
		return nil, err
	}
	completarItemsDesdeXML(&out, c.log)
	return &out, nil
}

// EncolarDetalle POST /sunat/descargar-xml/encolar (flujo con cola de jobs).
func (c *Client) EncolarDetalle(ctx context.Context, req dto.DetalleFacturaRequest) (*dto.EncoladoResponse, error) {
	var out dto.EncoladoResponse
	if err := c.doJSON(ctx, c.operacion, http.MethodPost, "/sunat/descargar-xml/encolar", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EstadoJob GET /sunat/job/{id}.
func (c *Client) EstadoJob(ctx context.Context, jobID string) (*dto.EstadoJobResponse, error) {
	var out dto.EstadoJobResponse
	if err := c.doJSON(ctx, c.operacion, http.MethodGet, "/sunat/job/"+url.PathEscape(jobID), nil, &out); err != nil {
		return nil, err
	}
	if out.Result != nil {
		completarItemsDesdeXML(out.Result, c.log)
	}
	return &out, nil
}

// GuardarProductos POST /factura/guardar-productos/{numeroComprobante}.
func (c *Client) GuardarProductos(ctx context.Context, numeroComprobante string, req dto.GuardarProductosRequest) (*dto.GuardarProductosResponse, error) {
	var out dto.GuardarProductosResponse
	if err := c.doJSON(ctx, c.operacion, http.MethodPost, "/factura/guardar-productos/"+url.PathEscape(numeroComprobante), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarcarScrapingCompletado PUT /factura/scraping-completado/{numeroComprobante}.
func (c *Client) MarcarScrapingCompletado(ctx context.Context, numeroComprobante string, req dto.ScrapingCompletadoRequest) (*dto.ScrapingCompletadoResponse, error) {
	var out dto.ScrapingCompletadoResponse
	if err := c.doJSON(ctx, c.operacion, http.MethodPut, "/factura/scraping-completado/"+url.PathEscape(numeroComprobante), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegistrarFacturas POST /factura/procesarFactura (bulk).
func (c *Client) RegistrarFacturas(ctx context.Context, req dto.RegistroFacturasRequest) (*dto.RegistroFacturasResponse, error) {
	var out dto.RegistroFacturasResponse
	if err := c.doJSON(ctx, c.operacion, http.MethodPost, "/factura/procesarFactura", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidarCredenciales POST /sunat/validar-credenciales.
func (c *Client) ValidarCredenciales(ctx context.Context, req dto.ValidarCredencialesRequest) (*dto.ValidarCredencialesResponse, error) {
	var out dto.ValidarCredencialesResponse
	if err := c.doJSON(ctx, c.listado, http.MethodPost, "/sunat/validar-credenciales", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Transporte ────────────────────────────────────────────────────────────────

// doJSON ejecuta la llamada y deserializa la respuesta JSON en out.
// Respuestas no-2xx se devuelven como error con el cuerpo truncado.
func (c *Client) doJSON(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: serializar request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend: crear HTTP request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("backend: timeout o cancelación: %w", ctx.Err())
		}
		return fmt.Errorf("backend: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	reader := decodificarCharset(resp)
	rawBody, err := io.ReadAll(io.LimitReader(reader, 4<<20))
	if err != nil {
		return fmt.Errorf("backend: leer respuesta: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detalle := strings.TrimSpace(string(rawBody))
		if len(detalle) > 300 {
			detalle = detalle[:300]
		}
		return fmt.Errorf("backend: HTTP %d en %s %s: %s", resp.StatusCode, method, path, detalle)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rawBody, out); err != nil {
		return fmt.Errorf("backend: deserializar respuesta de %s: %w", path, err)
	}
	return nil
}

// decodificarCharset envuelve el cuerpo con un decoder ISO-8859-1 cuando el
// proxy SUNAT responde razones sociales sin normalizar a UTF-8.
func decodificarCharset(resp *http.Response) io.Reader {
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(ct, "iso-8859-1") || strings.Contains(ct, "latin-1") {
		return transform.NewReader(resp.Body, charmap.ISO8859_1.NewDecoder())
	}
	return resp.Body
}
