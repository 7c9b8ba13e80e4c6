// Package domain reúne os tipos do limitador do gateway: a janela de cada
// cliente (Bucket), onde ela mora (BucketStore), a decisão devolvida ao
// middleware (Decision), as vagas de consulta (SlotPool) e os eventos de
// estatística (StatsEvent).
package domain
