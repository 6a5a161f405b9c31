package harden

import "fmt"

// The shim guards against third-party or framework code that creates style
// or script elements after the initial render, which would otherwise violate
// a nonce-based policy. Element creation is intercepted so freshly created
// style and script elements are stamped immediately, and the two insertion
// primitives are intercepted so any un-nonced style element is stamped at
// insertion time.
const shimTemplate = `<script nonce="%[1]s">(function () {
  var nonce = "%[1]s";
  var create = document.createElement;
  document.createElement = function (tagName) {
    var el = create.apply(document, arguments);
    var name = String(tagName).toLowerCase();
    if (name === "style" || name === "script") {
      el.setAttribute("nonce", nonce);
    }
    return el;
  };
  function stamp(node) {
    if (node && node.tagName === "STYLE" && !node.getAttribute("nonce")) {
      node.setAttribute("nonce", nonce);
    }
    return node;
  }
  var insertBefore = Node.prototype.insertBefore;
  Node.prototype.insertBefore = function (node, reference) {
    return insertBefore.call(this, stamp(node), reference);
  };
  var appendChild = Node.prototype.appendChild;
  Node.prototype.appendChild = function (node) {
    return appendChild.call(this, stamp(node));
  };
})();</script>`

// DynamicShim renders the runtime shim carrying the given nonce.
func DynamicShim(nonce string) string {
	return fmt.Sprintf(shimTemplate, nonce)
}
