package domain

import "context"

// SlotPool limita quantas consultas rodam ao mesmo tempo.
//
// Acquire bloqueia até haver vaga ou até o ctx encerrar. Em caso de sucesso
// devolve release, que deve ser chamada exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
