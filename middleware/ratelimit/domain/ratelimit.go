package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrContention indica que o store não conseguiu gravar a chave por disputa
// com outras escritas. A tentativa não foi contada.
var ErrContention = errors.New("ratelimit: bucket update contention")

type Key string

// Bucket é a janela fixa de um cliente: quantas requisições chegaram desde
// WindowStart. Requisições negadas também contam.
type Bucket struct {
	Count       int
	WindowStart time.Time
}

// BucketStore guarda um Bucket por chave.
//
// Update executa fn como leitura-modificação-escrita atômica para a chave:
// duas chamadas concorrentes para a mesma chave nunca enxergam o mesmo
// estado. found=false quando a chave ainda não existe. Implementações
// otimistas podem chamar fn mais de uma vez; fn não deve ter efeitos
// colaterais além do valor devolvido.
type BucketStore interface {
	Update(ctx context.Context, key Key, fn func(b Bucket, found bool) Bucket) error
}

// WindowCounter é implementado por stores que aplicam a janela fixa inteira
// numa operação só: abre janela nova (contagem 1, início now) quando não há
// bucket ou now - início > window, senão incrementa. Devolve o bucket já
// gravado.
type WindowCounter interface {
	Hit(ctx context.Context, key Key, now time.Time, window time.Duration) (Bucket, error)
}

type Decision struct {
	Allowed bool
	// RetryAfter é o tempo até a janela reabrir. Só faz sentido quando
	// Allowed=false.
	RetryAfter time.Duration

	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfterSeconds arredonda RetryAfter para cima, como o header
// Retry-After espera.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(d.RetryAfter.Seconds()))
}
