package cache

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Cache define la interfaz para una caché de clave-valor genérica.
type Cache interface {
	// Get intenta poblar 'dest' (que debe ser un puntero) con el valor asociado a la 'key'.
	// Devuelve (true, nil) si hay un 'hit' y (false, nil) si es un 'miss'.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set serializa y guarda el valor con un TTL en segundos.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	// Delete elimina la 'key' de la caché.
	Delete(ctx context.Context, key string) error
}

// Key deriva una clave de longitud fija a partir de partes arbitrarias
// (una cláusula SQL puede ser muy larga). Mismas partes, misma clave.
func Key(namespace string, parts ...string) string {
	name := strings.Join(parts, "\x1f")
	return namespace + ":" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
