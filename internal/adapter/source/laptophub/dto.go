package laptophub

// AddItemRequest is the body of POST /cart/user/{userId}/items
type AddItemRequest struct {
	ProductID int64 `json:"productId"`
	Cantidad  int   `json:"cantidad"`
}

// UpdateQuantityRequest is the body of PUT /cart/items/{itemId}
type UpdateQuantityRequest struct {
	Cantidad int `json:"cantidad"`
}

// Field aliases. The shop API answers in Spanish; some gateways and the
// fake server answer in English. The first path present wins.
var (
	itemNamePaths     = []string{"nombre", "name", "product.nombre", "product.name"}
	itemPricePaths    = []string{"precio", "unitPrice", "precioUnitario", "product.precio", "product.price"}
	itemQuantityPaths = []string{"cantidad", "quantity"}
	itemImagePaths    = []string{"imagenUrl", "imageUrl"}

	productNamePaths   = []string{"nombre", "name"}
	productBrandPaths  = []string{"marca", "brand"}
	productDescPaths   = []string{"descripcion", "description"}
	productPricePaths  = []string{"precio", "price"}
	productImagesPaths = []string{"imagenes", "images"}

	imageDescPaths  = []string{"descripcion", "description"}
	imageOrderPaths = []string{"orden", "order"}
)
