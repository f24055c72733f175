package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-interno/internal/application/ports"
	"github.com/jhoicas/portal-interno/internal/application/session"
	"github.com/jhoicas/portal-interno/internal/domain"
	"github.com/jhoicas/portal-interno/internal/domain/entity"
)

const testDomain = "empresa.com.br"

func newProvider(t *testing.T, client *fakeClient) *session.Provider {
	t.Helper()
	p := session.NewProvider(client, zerolog.Nop(), session.Options{EmailDomain: testDomain, LoadTimeout: time.Second})
	t.Cleanup(p.Close)
	return p
}

func waitReady(t *testing.T, p *session.Provider) {
	t.Helper()
	select {
	case <-p.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("el provider no terminó la carga inicial")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Carga inicial
// ──────────────────────────────────────────────────────────────────────────────

func TestProvider_CargandoHastaQueTerminaGetSession(t *testing.T) {
	client := newFakeClient()
	client.getGate = make(chan struct{})
	client.current = sessionFor("ana@empresa.com.br", "ana", "gre", time.Hour)

	p := newProvider(t, client)
	p.Start(context.Background())

	st := p.State()
	assert.True(t, st.IsLoading)
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.Profile)

	close(client.getGate)
	waitReady(t, p)

	st = p.State()
	assert.False(t, st.IsLoading)
	assert.True(t, st.IsAuthenticated)
	require.NotNil(t, st.Profile)
	assert.Equal(t, entity.RoleGRE, st.Profile.Cargo)
	assert.Equal(t, "ana", st.Profile.Username)
}

func TestProvider_ServicioCaido_FallaCerrado(t *testing.T) {
	client := newFakeClient()
	client.getErr = errors.New("dial tcp: connection refused")

	p := newProvider(t, client)
	p.Start(context.Background())
	waitReady(t, p)

	st := p.State()
	assert.False(t, st.IsLoading)
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.Profile)
}

func TestProvider_SesionExpiradaEnCarga_SinSesion(t *testing.T) {
	client := newFakeClient()
	client.current = sessionFor("ana@empresa.com.br", "ana", "gre", -time.Minute)

	p := newProvider(t, client)
	p.Start(context.Background())
	waitReady(t, p)

	assert.False(t, p.State().IsAuthenticated)
}

func TestProvider_IsLoadingNoVuelveATrue(t *testing.T) {
	client := newFakeClient()
	p := newProvider(t, client)
	p.Start(context.Background())
	waitReady(t, p)

	client.addUser("ana@empresa.com.br", "secreta123", "ana", "adm")
	require.NoError(t, p.Login(context.Background(), session.Credentials{Identifier: "ana", Password: "secreta123"}))
	assert.False(t, p.State().IsLoading)

	require.NoError(t, p.Logout(context.Background()))
	assert.False(t, p.State().IsLoading)

	p.Start(context.Background()) // segunda llamada no recarga
	assert.False(t, p.State().IsLoading)
	assert.Equal(t, 1, client.getCalls)
}

func TestProvider_EventoDuranteCarga_GanaSobreLaCarga(t *testing.T) {
	client := newFakeClient()
	client.getGate = make(chan struct{})
	client.current = nil // la carga devolverá "sin sesión"

	p := newProvider(t, client)
	p.Start(context.Background())

	client.emit(ports.EventSignedIn, sessionFor("rui@empresa.com.br", "rui", "compras", time.Hour))
	close(client.getGate)
	waitReady(t, p)

	st := p.State()
	assert.True(t, st.IsAuthenticated, "el resultado tardío de la carga no pisa el evento")
	require.NotNil(t, st.Profile)
	assert.Equal(t, entity.RoleCompras, st.Profile.Cargo)
}

func TestProvider_LoginDuranteCarga_TerminaLaCarga(t *testing.T) {
	client := newFakeClient()
	client.getGate = make(chan struct{})
	client.addUser("ana@empresa.com.br", "secreta123", "ana", "adm")
	t.Cleanup(func() { close(client.getGate) })

	p := newProvider(t, client)
	p.Start(context.Background())
	require.True(t, p.State().IsLoading)

	require.NoError(t, p.Login(context.Background(), session.Credentials{Identifier: "ana", Password: "secreta123"}))

	st := p.State()
	assert.False(t, st.IsLoading)
	assert.True(t, st.IsAuthenticated)
	select {
	case <-p.Ready():
	default:
		t.Fatal("Ready sigue abierto después del login")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Login
// ──────────────────────────────────────────────────────────────────────────────

func TestProvider_LoginValido_PoblaPerfil(t *testing.T) {
	client := newFakeClient()
	client.addUser("joao.silva@empresa.com.br", "secreta123", "joao.silva", "compras")
	p := newProvider(t, client)
	p.Start(context.Background())
	waitReady(t, p)
	require.False(t, p.State().IsAuthenticated)

	err := p.Login(context.Background(), session.Credentials{Identifier: "João Silva", Password: "secreta123"})
	require.NoError(t, err)
	assert.Equal(t, "joao.silva@empresa.com.br", client.lastEmail, "usuario expandido al dominio fijo")

	st := p.State()
	assert.True(t, st.IsAuthenticated)
	require.NotNil(t, st.Profile)
	assert.Equal(t, entity.RoleCompras, st.Profile.Cargo)
	assert.Equal(t, "joao.silva@empresa.com.br", st.Profile.Email)
}

func TestProvider_LoginConEmail_SeUsaTalCual(t *testing.T) {
	client := newFakeClient()
	client.addUser("Externo@Parceiro.com", "secreta123", "externo", "colaborador")
	p := newProvider(t, client)

	err := p.Login(context.Background(), session.Credentials{Identifier: "  Externo@Parceiro.com ", Password: "secreta123"})
	require.NoError(t, err)
	assert.Equal(t, "Externo@Parceiro.com", client.lastEmail)
	assert.Equal(t, "externo@parceiro.com", p.State().Profile.Email)
}

func TestProvider_LoginInvalido_NoCambiaEstado(t *testing.T) {
	client := newFakeClient()
	client.addUser("ana@empresa.com.br", "secreta123", "ana", "adm")
	p := newProvider(t, client)
	p.Start(context.Background())
	waitReady(t, p)
	before := p.State()

	err := p.Login(context.Background(), session.Credentials{Identifier: "ana", Password: "errada"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.NotEmpty(t, session.UserMessage(err))
	assert.Equal(t, before, p.State())
	assert.False(t, p.State().IsAuthenticated)
}

func TestProvider_LoginErrorDeRed_MensajeDeServicio(t *testing.T) {
	client := newFakeClient()
	client.signInErr = errors.New("i/o timeout")
	p := newProvider(t, client)

	err := p.Login(context.Background(), session.Credentials{Identifier: "ana", Password: "secreta123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIdentityUnavailable)
	assert.Equal(t, session.MsgUnavailable, session.UserMessage(err))
	assert.False(t, p.State().IsAuthenticated)
}

func TestProvider_LoginSinPassword(t *testing.T) {
	p := newProvider(t, newFakeClient())
	err := p.Login(context.Background(), session.Credentials{Identifier: "ana"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, session.MsgInvalidInput, session.UserMessage(err))
}

// ──────────────────────────────────────────────────────────────────────────────
// Eventos, idempotencia y cierre
// ──────────────────────────────────────────────────────────────────────────────

func TestProvider_StateIdempotente(t *testing.T) {
	client := newFakeClient()
	client.current = sessionFor("ana@empresa.com.br", "ana", "adm", time.Hour)
	p := newProvider(t, client)
	p.Start(context.Background())
	waitReady(t, p)

	a := p.State()
	b := p.State()
	assert.Equal(t, a, b)

	// La copia devuelta no comparte el perfil interno.
	a.Profile.Username = "otro"
	assert.Equal(t, "ana", p.State().Profile.Username)
}

func TestProvider_EventosEnOrden(t *testing.T) {
	client := newFakeClient()
	p := newProvider(t, client)
	p.Start(context.Background())
	waitReady(t, p)

	client.emit(ports.EventSignedIn, sessionFor("a@empresa.com.br", "a", "gre", time.Hour))
	client.emit(ports.EventTokenRefreshed, sessionFor("a@empresa.com.br", "a", "adm", time.Hour))
	st := p.State()
	require.NotNil(t, st.Profile)
	assert.Equal(t, entity.RoleAdm, st.Profile.Cargo, "el último evento define el perfil")

	client.emit(ports.EventSignedOut, nil)
	st = p.State()
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.Profile)
}

func TestProvider_EventoConSesionExpirada_SinSesion(t *testing.T) {
	client := newFakeClient()
	p := newProvider(t, client)
	client.emit(ports.EventSignedIn, sessionFor("a@empresa.com.br", "a", "gre", time.Hour))
	require.True(t, p.State().IsAuthenticated)

	client.emit(ports.EventUserUpdated, sessionFor("a@empresa.com.br", "a", "gre", -time.Second))
	assert.False(t, p.State().IsAuthenticated)
}

func TestProvider_CargoDesconocido_PerfilConRoleUnknown(t *testing.T) {
	client := newFakeClient()
	p := newProvider(t, client)
	client.emit(ports.EventSignedIn, sessionFor("a@empresa.com.br", "a", "estagiario", time.Hour))

	st := p.State()
	assert.True(t, st.IsAuthenticated)
	require.NotNil(t, st.Profile)
	assert.Equal(t, entity.RoleUnknown, st.Profile.Cargo)
	assert.Equal(t, "estagiario", st.Profile.RawCargo)
}

func TestProvider_Logout_LimpiaAunqueFalleRemoto(t *testing.T) {
	client := newFakeClient()
	client.signOutErr = errors.New("503")
	p := newProvider(t, client)
	client.emit(ports.EventSignedIn, sessionFor("a@empresa.com.br", "a", "gre", time.Hour))

	err := p.Logout(context.Background())
	assert.Error(t, err)
	assert.False(t, p.State().IsAuthenticated)
}

func TestProvider_Revalidate_RefrescaSesionExpirada(t *testing.T) {
	client := newFakeClient()
	now := time.Now()
	p := session.NewProvider(client, zerolog.Nop(), session.Options{
		EmailDomain: testDomain,
		Now:         func() time.Time { return now },
	})
	t.Cleanup(p.Close)

	client.emit(ports.EventSignedIn, sessionFor("a@empresa.com.br", "a", "gre", time.Minute))
	require.True(t, p.State().IsAuthenticated)

	// Sin expirar no consulta al cliente.
	p.Revalidate(context.Background())
	assert.Equal(t, 0, client.getCalls)

	now = now.Add(2 * time.Minute)
	client.current = &entity.Session{
		AccessToken: "nuevo",
		ExpiresAt:   now.Add(time.Hour),
		User:        entity.SessionUser{ID: "id", Email: "a@empresa.com.br", Metadata: map[string]any{"cargo": "gre"}},
	}
	p.Revalidate(context.Background())
	assert.Equal(t, 1, client.getCalls)
	assert.True(t, p.State().IsAuthenticated)

	now = now.Add(2 * time.Hour)
	client.getErr = errors.New("refresh token revocado")
	p.Revalidate(context.Background())
	assert.False(t, p.State().IsAuthenticated)
}

func TestProvider_Close_CancelaSuscripcion(t *testing.T) {
	client := newFakeClient()
	p := session.NewProvider(client, zerolog.Nop(), session.Options{})
	assert.Equal(t, 1, client.listenerCount())

	p.Close()
	p.Close()
	assert.Equal(t, 0, client.listenerCount())

	client.emit(ports.EventSignedIn, sessionFor("a@empresa.com.br", "a", "gre", time.Hour))
	assert.False(t, p.State().IsAuthenticated, "después de Close no recibe eventos")
}
