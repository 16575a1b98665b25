package ethereum

// contentNFTABI is the interface of the ContentNFT contract: the four
// state-changing operations, the read-only queries and the three
// events the gateway subscribes to.
const contentNFTABI = `[
  {"type":"function","name":"design","stateMutability":"nonpayable","inputs":[
    {"name":"name","type":"string"},
    {"name":"symbol","type":"string"},
    {"name":"contentType","type":"string"},
    {"name":"mediaId","type":"string"},
    {"name":"thumbnailId","type":"string"},
    {"name":"totalSupplyLimit","type":"uint256"},
    {"name":"information","type":"string[]"},
    {"name":"agreements","type":"string[]"},
    {"name":"drm","type":"bool"},
    {"name":"personaInformation","type":"bool"},
    {"name":"secondarySales","type":"bool"},
    {"name":"royalty","type":"uint256[]"},
    {"name":"deleted","type":"bool"},
    {"name":"contractVersion","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[
    {"name":"to","type":"address"},
    {"name":"specId","type":"uint256"},
    {"name":"mediaId","type":"string"},
    {"name":"information","type":"string[]"},
    {"name":"contractVersion","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[
    {"name":"to","type":"address"},
    {"name":"objectId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[
    {"name":"from","type":"address"},
    {"name":"to","type":"address"},
    {"name":"objectId","type":"uint256"}],"outputs":[]},

  {"type":"function","name":"objectIndexOf","stateMutability":"view",
    "inputs":[{"name":"_objectId","type":"uint256"}],
    "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"ownedSpecs","stateMutability":"view",
    "inputs":[{"name":"_address","type":"address"}],
    "outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"getDigitalContentSpec","stateMutability":"view",
    "inputs":[{"name":"_specId","type":"uint256"}],
    "outputs":[
      {"name":"specId","type":"uint256"},
      {"name":"owner","type":"address"},
      {"name":"name","type":"string"},
      {"name":"symbol","type":"string"},
      {"name":"contentType","type":"string"},
      {"name":"mediaId","type":"string"},
      {"name":"thumbnailId","type":"string"},
      {"name":"totalSupplyLimit","type":"uint256"},
      {"name":"information","type":"string[]"},
      {"name":"agreements","type":"string[]"},
      {"name":"drm","type":"bool"},
      {"name":"personaInformation","type":"bool"},
      {"name":"secondarySales","type":"bool"},
      {"name":"royalty","type":"uint256[]"},
      {"name":"deleted","type":"bool"},
      {"name":"contractVersion","type":"uint256"}]},
  {"type":"function","name":"getDigitalContentObject","stateMutability":"view",
    "inputs":[{"name":"_objectId","type":"uint256"}],
    "outputs":[
      {"name":"objectId","type":"uint256"},
      {"name":"specId","type":"uint256"},
      {"name":"owner","type":"address"},
      {"name":"mediaId","type":"string"},
      {"name":"information","type":"string[]"},
      {"name":"contractVersion","type":"uint256"}]},
  {"type":"function","name":"specOwnerOf","stateMutability":"view",
    "inputs":[{"name":"_specId","type":"uint256"}],
    "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"totalSupplyOf","stateMutability":"view",
    "inputs":[{"name":"_specId","type":"uint256"}],
    "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"objectBalanceOf","stateMutability":"view",
    "inputs":[{"name":"_owner","type":"address"}],
    "outputs":[{"name":"_ownedObjectsCount","type":"uint256"}]},
  {"type":"function","name":"ownedObjectsOf","stateMutability":"view",
    "inputs":[{"name":"_owner","type":"address"}],
    "outputs":[{"name":"_ownedObjects","type":"uint256[]"}]},
  {"type":"function","name":"getNumberOfObjects","stateMutability":"view",
    "inputs":[],
    "outputs":[{"name":"_numberOfObjects","type":"uint256"}]},
  {"type":"function","name":"getContractOwner","stateMutability":"view",
    "inputs":[],
    "outputs":[{"name":"owner","type":"address"}]},

  {"type":"event","name":"DesignLog","anonymous":false,"inputs":[
    {"name":"owner","type":"address","indexed":true},
    {"name":"specId","type":"uint256","indexed":true},
    {"name":"name","type":"string","indexed":false},
    {"name":"symbol","type":"string","indexed":false},
    {"name":"mediaId","type":"string","indexed":false},
    {"name":"totalSupplyLimit","type":"uint256","indexed":false},
    {"name":"contractVersion","type":"uint256","indexed":false}]},
  {"type":"event","name":"MintLog","anonymous":false,"inputs":[
    {"name":"owner","type":"address","indexed":true},
    {"name":"specId","type":"uint256","indexed":true},
    {"name":"objectId","type":"uint256","indexed":true},
    {"name":"mediaId","type":"string","indexed":false},
    {"name":"contractVersion","type":"uint256","indexed":false}]},
  {"type":"event","name":"TransferLog","anonymous":false,"inputs":[
    {"name":"from","type":"address","indexed":true},
    {"name":"to","type":"address","indexed":true},
    {"name":"objectId","type":"uint256","indexed":true}]}
]`
