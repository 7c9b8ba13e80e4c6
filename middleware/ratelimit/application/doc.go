// Package application decide se uma consulta de domínio pode seguir.
//
// FixedWindow aplica a janela fixa por cliente sobre um domain.BucketStore e
// LookupSlots reserva vagas para as consultas em andamento. Nada aqui
// conhece HTTP.
package application
