package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/construmax/almacen-api/internal/application/dto"
	"github.com/construmax/almacen-api/internal/application/ledger"
	"github.com/construmax/almacen-api/internal/domain"
	"github.com/construmax/almacen-api/internal/domain/entity"
	"github.com/construmax/almacen-api/internal/domain/repository"
)

// LedgerHandler maneja las peticiones HTTP del núcleo de inventario
// (ajustes, apartados, traslados, entradas, salidas, reversas y Kardex).
type LedgerHandler struct {
	adjustments *ledger.AdjustmentService
	allocations *ledger.AllocationService
	receipts    *ledger.ReceiptService
	issues      *ledger.IssueService
	reversals   *ledger.ReversalEngine
	queries     *ledger.QueryService
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(
	adjustments *ledger.AdjustmentService,
	allocations *ledger.AllocationService,
	receipts *ledger.ReceiptService,
	issues *ledger.IssueService,
	reversals *ledger.ReversalEngine,
	queries *ledger.QueryService,
) *LedgerHandler {
	return &LedgerHandler{
		adjustments: adjustments,
		allocations: allocations,
		receipts:    receipts,
		issues:      issues,
		reversals:   reversals,
		queries:     queries,
	}
}

// mapLedgerError traduce la taxonomía de errores del dominio a HTTP. Los
// errores de validación/guarda regresan con detalle para que el llamador se
// corrija; las fallas internas se registran y se responden genéricas.
func mapLedgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "operación reservada al superusuario"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientReservation):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_RESERVATION", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidPriceEdit):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_PRICE_EDIT", Message: err.Error()})
	case errors.Is(err, domain.ErrReversalWindowExpired):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "REVERSAL_WINDOW_EXPIRED", Message: err.Error()})
	case errors.Is(err, domain.ErrUnsupportedReversalType):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "UNSUPPORTED_REVERSAL", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("falla interna del ledger")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

// ApplyAdjustments godoc
// @Summary      Aplicar lote de ajustes de existencia
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyAdjustmentsRequest  true  "líneas de ajuste (todo-o-nada)"
// @Success      201   {array}   dto.AdjustmentLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/adjustments [post]
func (h *LedgerHandler) ApplyAdjustments(c *fiber.Ctx) error {
	var in dto.ApplyAdjustmentsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	inputs := make([]ledger.AdjustmentInput, len(in.Adjustments))
	for i, line := range in.Adjustments {
		inputs[i] = ledger.AdjustmentInput{
			MaterialID: line.MaterialID,
			Delta:      line.Delta,
			LocationID: line.LocationID,
			UnitPrice:  line.UnitPrice,
			Currency:   line.Currency,
			Note:       line.Note,
		}
	}
	results, err := h.adjustments.ApplyAdjustments(c.Context(), GetActor(c), inputs)
	if err != nil {
		return mapLedgerError(c, err)
	}
	out := make([]dto.AdjustmentLineResponse, len(results))
	for i, res := range results {
		out[i] = dto.AdjustmentLineResponse{
			MaterialID: res.MaterialID,
			LocationID: res.LocationID,
			MovementID: res.MovementID,
			OnHand:     res.OnHand,
			Reserved:   res.Reserved,
		}
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Reserve godoc
// @Summary      Apartar existencia hacia un destino
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "material, cantidad y destino"
// @Success      201   {array}   dto.ReservePortionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/reservations [post]
func (h *LedgerHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	portions, err := h.allocations.Reserve(c.Context(), GetActor(c), in.MaterialID, in.Quantity, in.SiteID, in.ProjectID, in.RequisitionID)
	if err != nil {
		return mapLedgerError(c, err)
	}
	out := make([]dto.ReservePortionResponse, len(portions))
	for i, p := range portions {
		out[i] = dto.ReservePortionResponse{LocationID: p.LocationID, QuantityTaken: p.QuantityTaken}
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Relocate godoc
// @Summary      Trasladar un apartado a otro destino
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RelocateRequest  true  "apartado, nuevo destino y cantidad opcional"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/relocations [post]
func (h *LedgerHandler) Relocate(c *fiber.Ctx) error {
	var in dto.RelocateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.allocations.Relocate(c.Context(), GetActor(c), in.AssignmentID, in.NewSiteID, in.NewProjectID, in.Quantity)
	if err != nil {
		return mapLedgerError(c, err)
	}
	return c.JSON(fiber.Map{"message": "traslado aplicado"})
}

// RegisterReceipt godoc
// @Summary      Registrar entrada por orden de compra
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiptRequest  true  "orden de compra, material, cantidad y precio"
// @Success      201   {object}  dto.AdjustmentLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/ledger/receipts [post]
func (h *LedgerHandler) RegisterReceipt(c *fiber.Ctx) error {
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.receipts.RegisterReceipt(c.Context(), GetActor(c), ledger.ReceiptInput{
		PurchaseOrderID: in.PurchaseOrderID,
		MaterialID:      in.MaterialID,
		Quantity:        in.Quantity,
		LocationID:      in.LocationID,
		UnitPrice:       in.UnitPrice,
		Currency:        in.Currency,
		Note:            in.Note,
	})
	if err != nil {
		return mapLedgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AdjustmentLineResponse{
		MaterialID: in.MaterialID,
		LocationID: res.LocationID,
		MovementID: res.MovementID,
		OnHand:     res.OnHand,
		Reserved:   res.Reserved,
	})
}

// RegisterIssue godoc
// @Summary      Registrar salida de almacén
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueRequest  true  "material, cantidad y origen (disponible o apartado)"
// @Success      201   {object}  dto.AdjustmentLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/issues [post]
func (h *LedgerHandler) RegisterIssue(c *fiber.Ctx) error {
	var in dto.IssueRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.issues.RegisterIssue(c.Context(), GetActor(c), ledger.IssueInput{
		MaterialID:   in.MaterialID,
		Quantity:     in.Quantity,
		LocationID:   in.LocationID,
		AssignmentID: in.AssignmentID,
		Note:         in.Note,
	})
	if err != nil {
		return mapLedgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AdjustmentLineResponse{
		MaterialID: in.MaterialID,
		LocationID: res.LocationID,
		MovementID: res.MovementID,
		OnHand:     res.OnHand,
		Reserved:   res.Reserved,
	})
}

// Reverse godoc
// @Summary      Revertir un movimiento del Kardex
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReverseRequest  true  "movimiento y motivo"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/reversals [post]
func (h *LedgerHandler) Reverse(c *fiber.Ctx) error {
	var in dto.ReverseRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.reversals.Reverse(c.Context(), GetActor(c), in.MovementID, in.Reason); err != nil {
		return mapLedgerError(c, err)
	}
	return c.JSON(fiber.Map{"message": "movimiento revertido"})
}

// QueryMovements godoc
// @Summary      Consultar el Kardex
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        material_id       query  int     false  "Material"
// @Param        project_id        query  int     false  "Proyecto (origen o destino)"
// @Param        location_id       query  int     false  "Ubicación"
// @Param        type              query  string  false  "Tipo de movimiento"
// @Param        purchase_order_id query  int     false  "Orden de compra"
// @Param        requisition_id    query  int     false  "Requisición"
// @Param        actor_id          query  string  false  "Usuario"
// @Param        from              query  string  false  "Fecha desde (RFC 3339)"
// @Param        to                query  string  false  "Fecha hasta (RFC 3339)"
// @Param        q                 query  string  false  "Texto libre sobre notas"
// @Param        include_voided    query  bool    false  "Incluir anulados"
// @Param        limit             query  int     false  "Tamaño de página (máx 100)"
// @Param        offset            query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [get]
func (h *LedgerHandler) QueryMovements(c *fiber.Ctx) error {
	f, err := parseMovementFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	rows, total, err := h.queries.Search(c.Context(), f)
	if err != nil {
		return mapLedgerError(c, err)
	}
	out := dto.MovementPageResponse{
		Total: total,
		Rows:  make([]dto.MovementResponse, len(rows)),
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}
	for i, m := range rows {
		out.Rows[i] = toMovementResponse(m)
	}
	return c.JSON(out)
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                 m.ID,
		BatchID:            m.BatchID,
		MaterialID:         m.MaterialID,
		Type:               string(m.Type),
		Quantity:           m.Quantity,
		LocationID:         m.LocationID,
		OriginProjectID:    m.OriginProjectID,
		DestProjectID:      m.DestProjectID,
		DestSiteID:         m.DestSiteID,
		PurchaseOrderID:    m.PurchaseOrderID,
		RequisitionID:      m.RequisitionID,
		SourceAssignmentID: m.SourceAssignmentID,
		UnitValue:          m.UnitValue,
		Currency:           m.Currency,
		Notes:              m.Notes,
		ActorID:            m.ActorID,
		Timestamp:          m.Timestamp,
		Status:             m.Status,
		VoidedAt:           m.VoidedAt,
		VoidedBy:           m.VoidedBy,
		VoidReason:         m.VoidReason,
		ReversesMovementID: m.ReversesMovementID,
	}
}

func parseMovementFilter(c *fiber.Ctx) (repository.MovementFilter, error) {
	f := repository.MovementFilter{
		Search:        c.Query("q"),
		IncludeVoided: c.QueryBool("include_voided", false),
		Limit:         c.QueryInt("limit", ledger.DefaultPageLimit),
		Offset:        c.QueryInt("offset", 0),
	}
	if f.Limit <= 0 {
		f.Limit = ledger.DefaultPageLimit
	}
	if f.Limit > ledger.MaxPageLimit {
		f.Limit = ledger.MaxPageLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	for param, target := range map[string]**int64{
		"material_id":       &f.MaterialID,
		"project_id":        &f.ProjectID,
		"location_id":       &f.LocationID,
		"purchase_order_id": &f.PurchaseOrderID,
		"requisition_id":    &f.RequisitionID,
	} {
		if raw := c.Query(param); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return f, errors.New(param + " debe ser numérico")
			}
			*target = &id
		}
	}
	if raw := c.Query("type"); raw != "" {
		t := entity.MovementType(raw)
		if !t.Valid() {
			return f, errors.New("type desconocido: " + raw)
		}
		f.Type = &t
	}
	if raw := c.Query("actor_id"); raw != "" {
		f.ActorID = &raw
	}
	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("from debe ser RFC 3339")
		}
		f.From = &ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("to debe ser RFC 3339")
		}
		f.To = &ts
	}
	return f, nil
}
