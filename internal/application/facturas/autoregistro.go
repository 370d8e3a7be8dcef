package facturas

import (
	"context"
	"sync"
	"time"

	"github.com/contasol/sunat-registro/internal/domain/entity"
)

// autoRegistro observa las mutaciones del store y programa un registro
// diferido por cada factura que alcanza CON DETALLE. El temporizador da al
// usuario una ventana para intervenir: al dispararse se vuelve a leer el
// estado y solo se registra si la factura sigue en CON DETALLE.
type autoRegistro struct {
	uc *UseCase

	mu     sync.Mutex
	timers map[int]*time.Timer
}

// EjecutarAutoRegistro corre el observador hasta que el contexto se cancela.
// Pensado para lanzarse como goroutine desde el arranque.
func (uc *UseCase) EjecutarAutoRegistro(ctx context.Context) {
	ar := &autoRegistro{uc: uc, timers: make(map[int]*time.Timer)}
	cambios := uc.store.Cambios()

	uc.log.Info().Dur("delay", uc.cfg.AutoRegistroDelay).Msg("registro automático activo")
	for {
		select {
		case <-ctx.Done():
			ar.detenerTodos()
			uc.log.Info().Msg("registro automático detenido")
			return
		case <-cambios:
			ar.reconciliar(ctx)
		}
	}
}

// reconciliar sincroniza los temporizadores con el estado actual: programa
// uno por cada factura en CON DETALLE que no lo tenga y cancela los de
// facturas que salieron de ese estado (registro manual, logout, relistado).
func (ar *autoRegistro) reconciliar(ctx context.Context) {
	enDetalle := make(map[int]entity.Direccion)
	for _, dir := range []entity.Direccion{entity.DireccionCompras, entity.DireccionVentas} {
		for _, f := range ar.uc.store.Listar(dir) {
			if f.Estado == entity.EstadoConDetalle {
				enDetalle[f.ID] = dir
			}
		}
	}

	ar.mu.Lock()
	defer ar.mu.Unlock()

	for id, t := range ar.timers {
		if _, sigue := enDetalle[id]; !sigue {
			t.Stop()
			delete(ar.timers, id)
		}
	}
	for id, dir := range enDetalle {
		if _, ya := ar.timers[id]; ya {
			continue
		}
		id, dir := id, dir
		ar.timers[id] = time.AfterFunc(ar.uc.cfg.AutoRegistroDelay, func() {
			ar.disparar(ctx, dir, id)
		})
		ar.uc.log.Debug().Int("id", id).Str("tipo", string(dir)).Msg("registro automático programado")
	}
}

// disparar corre al vencer el temporizador. Relee la factura: si ya no está
// en CON DETALLE (el usuario la registró a mano o la lista cambió), no hace
// nada. La entrada del mapa se elimina siempre, incluso si el registro falla.
func (ar *autoRegistro) disparar(ctx context.Context, dir entity.Direccion, id int) {
	defer func() {
		ar.mu.Lock()
		delete(ar.timers, id)
		ar.mu.Unlock()
	}()

	if ctx.Err() != nil {
		return
	}
	factura, ok := ar.uc.store.BuscarPorID(dir, id)
	if !ok || factura.Estado != entity.EstadoConDetalle {
		return
	}

	if err := ar.uc.registrarUna(ctx, dir, factura); err != nil {
		ar.uc.log.Warn().Err(err).
			Str("comprobante", factura.NumeroComprobante()).
			Msg("registro automático falló")
		ar.uc.registrarError("Error al registrar " + factura.NumeroComprobante() + ": " + err.Error())
		return
	}
	ar.uc.log.Info().
		Str("comprobante", factura.NumeroComprobante()).
		Msg("factura registrada automáticamente")
}

func (ar *autoRegistro) detenerTodos() {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	for id, t := range ar.timers {
		t.Stop()
		delete(ar.timers, id)
	}
}
